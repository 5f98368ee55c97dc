package textproc

import (
	"bufio"
	"io"
	"strings"
)

// Tokenize splits normalized text into word tokens. Normalized text holds
// only letters and single spaces, so word boundaries are whitespace runs.
func Tokenize(clean string) []string {
	return strings.Fields(clean)
}

// StopwordSet holds lowercase stopwords.
type StopwordSet map[string]struct{}

// ReadStopwords parses one word per line. Blank lines and lines starting with
// '#' are ignored.
func ReadStopwords(r io.Reader) (StopwordSet, error) {
	set := make(StopwordSet)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		set[w] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Contains reports whether word is a stopword, ignoring case.
func (s StopwordSet) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Filter returns tokens that are not stopwords, preserving order and case.
func (s StopwordSet) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}
