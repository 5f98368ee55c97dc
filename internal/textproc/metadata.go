// Package textproc recovers metadata from raw filing documents and turns their
// text into normalized, stopword-filtered token sequences.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	filedAsOfRe = regexp.MustCompile(`FILED AS OF DATE:\s+(\d{8})`)
	isoDateRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	compactRe   = regexp.MustCompile(`\d{8}`)
	formTypeRe  = regexp.MustCompile(`(?i)(10[-\s]?K|10[-\s]?Q|8[-\s]?K)`)
)

// Metadata is what can be recovered about a filing without reading its body
// semantically. Empty fields mean "not found" and are valid values.
type Metadata struct {
	Date     string // YYYY-MM-DD or empty
	FormType string // 10K, 10Q, 8K or empty
}

// Extract returns the filing date and form type for a document. The date
// comes from the in-body "FILED AS OF DATE" marker when present and from the
// path otherwise; the form type always comes from the path.
func Extract(raw, path string) Metadata {
	date := FilingDate(raw)
	if date == "" {
		date = DateFromPath(path)
	}
	return Metadata{Date: date, FormType: FormType(path)}
}

// FilingDate finds the "FILED AS OF DATE: YYYYMMDD" header line and returns
// the date as YYYY-MM-DD, or "" when the marker is absent.
func FilingDate(raw string) string {
	m := filedAsOfRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return dashed(m[1])
}

// DateFromPath looks for YYYY-MM-DD first and a bare YYYYMMDD second.
// The first match wins; candidates are not validated as calendar dates.
func DateFromPath(path string) string {
	if m := isoDateRe.FindString(path); m != "" {
		return m
	}
	if m := compactRe.FindString(path); m != "" {
		return dashed(m)
	}
	return ""
}

// FormType returns the normalized form type (10K, 10Q, 8K) named in path.
func FormType(path string) string {
	m := formTypeRe.FindString(path)
	if m == "" {
		return ""
	}
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, m))
}

func dashed(d string) string {
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}
