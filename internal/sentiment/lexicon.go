package sentiment

import "strings"

// Counts are the dictionary hits behind a Score.
type Counts struct {
	Positive int
	Negative int
}

// Score returns (pos - neg) / (pos + neg) over tokens longer than one
// character, matched case-insensitively against d. It is exactly 0 when no
// token matches either set, so the result is always a finite value in [-1, 1].
func Score(tokens []string, d *Dictionary) float64 {
	return Count(tokens, d).Score()
}

// Count tallies positive and negative dictionary hits.
func Count(tokens []string, d *Dictionary) Counts {
	var c Counts
	if d == nil {
		return c
	}
	for _, t := range tokens {
		if len(t) <= 1 {
			continue
		}
		w := strings.ToLower(t)
		if _, ok := d.Positive[w]; ok {
			c.Positive++
		}
		if _, ok := d.Negative[w]; ok {
			c.Negative++
		}
	}
	return c
}

// Score applies the polarity ratio to the counts.
func (c Counts) Score() float64 {
	total := c.Positive + c.Negative
	if total == 0 {
		return 0
	}
	return float64(c.Positive-c.Negative) / float64(total)
}
