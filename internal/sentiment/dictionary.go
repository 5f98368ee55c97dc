// Package sentiment scores text polarity two ways: a finance dictionary count
// for filings and a valence-lexicon analyzer for news headlines.
package sentiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Dictionary holds the lowercase positive and negative word sets of a
// finance sentiment dictionary. A word may be in both sets or neither.
type Dictionary struct {
	Negative map[string]struct{}
	Positive map[string]struct{}
}

// NewDictionary builds a Dictionary from word lists, lower-casing them.
func NewDictionary(negative, positive []string) *Dictionary {
	d := &Dictionary{
		Negative: make(map[string]struct{}, len(negative)),
		Positive: make(map[string]struct{}, len(positive)),
	}
	for _, w := range negative {
		d.Negative[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range positive {
		d.Positive[strings.ToLower(w)] = struct{}{}
	}
	return d
}

// LoadDictionary reads a Loughran-McDonald style master dictionary CSV.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sentiment dictionary: %w", err)
	}
	defer f.Close()

	d, err := ReadDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("sentiment dictionary %s: %w", path, err)
	}
	return d, nil
}

// ReadDictionary parses dictionary CSV rows. The header must name Word,
// Negative and Positive columns (any case, any position). A row joins the
// negative set when Negative > 0 and the positive set when Positive > 0.
func ReadDictionary(r io.Reader) (*Dictionary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty dictionary file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := map[string]int{"word": -1, "negative": -1, "positive": -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[key]; ok {
			cols[key] = i
		}
	}
	for name, idx := range cols {
		if idx < 0 {
			return nil, fmt.Errorf("missing %q column", name)
		}
	}

	d := &Dictionary{Negative: map[string]struct{}{}, Positive: map[string]struct{}{}}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		word := strings.ToLower(strings.TrimSpace(field(rec, cols["word"])))
		if word == "" {
			continue
		}
		neg, err := indicator(field(rec, cols["negative"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: Negative: %w", line, err)
		}
		pos, err := indicator(field(rec, cols["positive"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: Positive: %w", line, err)
		}
		if neg > 0 {
			d.Negative[word] = struct{}{}
		}
		if pos > 0 {
			d.Positive[word] = struct{}{}
		}
	}
	return d, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

// indicator parses a dictionary flag column. The master dictionary stores the
// year a word was added (or 0), and a negative year marks a removal.
func indicator(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
