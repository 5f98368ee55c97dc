package sentiment

import (
	"math"
	"strings"

	"github.com/jonreiter/govader"
)

// Polarity is a valence breakdown of a text: the share of negative, neutral
// and positive weight (summing to ~1) and a normalized compound score in
// [-1, 1].
type Polarity struct {
	Neg      float64
	Neu      float64
	Pos      float64
	Compound float64
}

// Analyzer scores general-purpose text with the VADER lexicon and rules.
// It is safe for concurrent use once built.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewAnalyzer builds an analyzer over the bundled VADER lexicon.
func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// PolarityScores rates text. Proportions are rounded to three decimals and
// compound to four, the precision of the stored news table. Blank text
// scores all zeros.
func (a *Analyzer) PolarityScores(text string) Polarity {
	if strings.TrimSpace(text) == "" {
		return Polarity{}
	}
	s := a.vader.PolarityScores(text)
	return Polarity{
		Neg:      round(s.Negative, 3),
		Neu:      round(s.Neutral, 3),
		Pos:      round(s.Positive, 3),
		Compound: round(s.Compound, 4),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
