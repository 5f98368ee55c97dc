package sentiment

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreMixed(t *testing.T) {
	d := NewDictionary([]string{"loss"}, []string{"growth"})
	got := Score([]string{"growth", "loss", "loss"}, d)
	assert.InDelta(t, -1.0/3.0, got, 1e-12)
}

func TestScoreNoMatchesIsZero(t *testing.T) {
	d := NewDictionary([]string{"loss"}, []string{"growth"})
	for _, tokens := range [][]string{nil, {}, {"revenue", "quarter"}} {
		got := Score(tokens, d)
		assert.Equal(t, 0.0, got)
		assert.False(t, math.IsNaN(got))
	}
	assert.Equal(t, 0.0, Score([]string{"growth"}, nil))
}

func TestScoreCaseFoldAndShortTokens(t *testing.T) {
	d := NewDictionary([]string{"x", "Loss"}, []string{"GROWTH"})
	c := Count([]string{"Growth", "LOSS", "x", "X"}, d)
	assert.Equal(t, Counts{Positive: 1, Negative: 1}, c)
	assert.Equal(t, 0.0, c.Score())
}

func TestScoreWordInBothSets(t *testing.T) {
	d := NewDictionary([]string{"volatile"}, []string{"volatile"})
	assert.Equal(t, 0.0, Score([]string{"volatile"}, d))
}

func TestScoreAlwaysBounded(t *testing.T) {
	vocab := []string{"gain", "loss", "up", "down", "a", "b", "profit", "risk", "x"}
	d := NewDictionary([]string{"loss", "down", "risk", "x"}, []string{"gain", "up", "profit"})
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		tokens := make([]string, rng.Intn(30))
		for j := range tokens {
			tokens[j] = vocab[rng.Intn(len(vocab))]
		}
		s := Score(tokens, d)
		assert.GreaterOrEqual(t, s, -1.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestReadDictionary(t *testing.T) {
	csvData := "\ufeffWord,Seq_num,Negative,Positive,Uncertainty\n" +
		"ABANDON,1,2009,0,0\n" +
		"ABLE,2,0,2009,0\n" +
		"BOTH,3,2011,2011,0\n" +
		"NEITHER,4,0,0,0\n" +
		"REMOVED,5,-2020,0,0\n"
	d, err := ReadDictionary(strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Contains(t, d.Negative, "abandon")
	assert.Contains(t, d.Positive, "able")
	assert.Contains(t, d.Negative, "both")
	assert.Contains(t, d.Positive, "both")
	assert.NotContains(t, d.Negative, "neither")
	assert.NotContains(t, d.Positive, "neither")
	assert.NotContains(t, d.Negative, "removed")
}

func TestReadDictionaryMalformed(t *testing.T) {
	_, err := ReadDictionary(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadDictionary(strings.NewReader("Word,Negative\nLOSS,2009\n"))
	assert.ErrorContains(t, err, "positive")

	_, err = ReadDictionary(strings.NewReader("Word,Negative,Positive\nLOSS,yes,0\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestLoadDictionaryMissingFile(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadDictionaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lm.csv")
	require.NoError(t, os.WriteFile(path, []byte("Word,Negative,Positive\nLOSS,2009,0\nGAIN,0,2009\n"), 0o644))
	d, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Len(t, d.Negative, 1)
	assert.Len(t, d.Positive, 1)
}

func TestPolarityKnownScores(t *testing.T) {
	a := NewAnalyzer()

	cases := []struct {
		text     string
		compound float64
	}{
		{"VADER is smart, handsome, and funny.", 0.8316},
		{"VADER is very smart, handsome, and funny.", 0.8545},
		{"VADER is VERY SMART, handsome, and FUNNY.", 0.9227},
		{"The book was kind of good.", 0.3832},
		{"Roblox users complain the game is boring and buggy", -0.5859},
	}
	for _, c := range cases {
		assert.InDelta(t, c.compound, a.PolarityScores(c.text).Compound, 1e-3, c.text)
	}

	p := a.PolarityScores("VADER is smart, handsome, and funny.")
	assert.InDelta(t, 0.0, p.Neg, 1e-3)
	assert.InDelta(t, 0.254, p.Neu, 1e-3)
	assert.InDelta(t, 0.746, p.Pos, 1e-3)
}

func TestPolarityDirection(t *testing.T) {
	a := NewAnalyzer()

	pos := a.PolarityScores("Roblox shares rise after strong earnings")
	assert.Greater(t, pos.Compound, 0.0)
	assert.Greater(t, pos.Pos, pos.Neg)

	neg := a.PolarityScores("Roblox stock falls amid weak and disappointing outlook")
	assert.Less(t, neg.Compound, 0.0)
	assert.Greater(t, neg.Neg, neg.Pos)
}

func TestPolarityNegation(t *testing.T) {
	a := NewAnalyzer()
	plain := a.PolarityScores("results were good")
	negated := a.PolarityScores("results were not good")
	assert.Greater(t, plain.Compound, 0.0)
	assert.Less(t, negated.Compound, 0.0)
}

func TestPolarityNeutralAndEmpty(t *testing.T) {
	a := NewAnalyzer()
	assert.Equal(t, Polarity{}, a.PolarityScores(""))
	assert.Equal(t, Polarity{}, a.PolarityScores("  \n "))

	p := a.PolarityScores("Roblox files quarterly report")
	assert.Equal(t, 0.0, p.Compound)
	assert.Equal(t, 1.0, p.Neu)
}

func TestPolarityBounds(t *testing.T) {
	a := NewAnalyzer()
	p := a.PolarityScores(strings.Repeat("great amazing success win ", 50) + "!!!!!!")
	assert.LessOrEqual(t, p.Compound, 1.0)
	assert.Greater(t, p.Compound, 0.9)
	assert.InDelta(t, 1.0, p.Neg+p.Neu+p.Pos, 0.01)
}
