// Package readability computes the Gunning-Fog index of normalized text.
package readability

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Score is the outcome of a readability computation. When Available is false
// Value is meaningless and Reason says why no score could be produced.
type Score struct {
	Value     float64
	Available bool
	Reason    string
}

// Unavailable returns a score carrying only a reason.
func Unavailable(reason string) Score {
	return Score{Reason: reason}
}

// String renders the value with two decimals, or "" when unavailable.
func (s Score) String() string {
	if !s.Available {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// Ptr returns the value or nil when unavailable, for nullable columns.
func (s Score) Ptr() *float64 {
	if !s.Available {
		return nil
	}
	v := s.Value
	return &v
}

// GunningFog returns 0.4 * (words per sentence + 100 * complex words / words),
// rounded to two decimals. Complex words have three or more syllables.
// Sentences end at '.', '!' or '?'; text without terminators is one sentence.
func GunningFog(text string) (score Score) {
	defer func() {
		if r := recover(); r != nil {
			score = Unavailable(fmt.Sprint("gunning fog: ", r))
		}
	}()

	words := strings.Fields(text)
	if len(words) == 0 {
		return Unavailable("no words")
	}

	var counted, complexWords int
	for _, w := range words {
		w = strings.Trim(w, ".!?,;:\"'()[]")
		if w == "" {
			continue
		}
		counted++
		if Syllables(w) >= 3 {
			complexWords++
		}
	}
	if counted == 0 {
		return Unavailable("no words")
	}

	sentences := countSentences(text)
	avg := float64(counted) / float64(sentences)
	pct := 100 * float64(complexWords) / float64(counted)
	v := 0.4 * (avg + pct)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unavailable("non-finite result")
	}
	return Score{Value: math.Round(v*100) / 100, Available: true}
}

func countSentences(text string) int {
	n := 0
	inTerm := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerm {
				n++
			}
			inTerm = true
		default:
			if r != ' ' && r != '\n' && r != '\t' {
				inTerm = false
			}
		}
	}
	trimmed := strings.TrimRight(text, " \n\t")
	if trimmed != "" && !strings.ContainsAny(trimmed[len(trimmed)-1:], ".!?") {
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// Syllables estimates the syllable count of an English word from its vowel
// groups, discounting a silent trailing "e" and counting a consonant + "le"
// ending. Every word with a letter has at least one syllable.
func Syllables(word string) int {
	w := strings.ToLower(word)
	letters := make([]byte, 0, len(w))
	for i := 0; i < len(w); i++ {
		if w[i] >= 'a' && w[i] <= 'z' {
			letters = append(letters, w[i])
		}
	}
	if len(letters) == 0 {
		return 0
	}
	if len(letters) <= 3 {
		return 1
	}

	count := 0
	prevVowel := false
	for i, c := range letters {
		v := isVowel(c) || (c == 'y' && i > 0)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	n := len(letters)
	// A silent final "e", except in consonant + "le" endings such as "table".
	if letters[n-1] == 'e' && !isVowel(letters[n-2]) &&
		!(letters[n-2] == 'l' && n > 2 && !isVowel(letters[n-3])) {
		count--
	}
	if n > 2 && letters[n-1] == 'd' && letters[n-2] == 'e' && !isVowel(letters[n-3]) &&
		letters[n-3] != 't' && letters[n-3] != 'd' {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
