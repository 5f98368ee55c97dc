package textproc

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed stopwords_english.txt
var englishStopwords []byte

// Resources are the language resources the filing pipeline needs.
type Resources struct {
	Stopwords StopwordSet
	// StopwordsPath is the file the stopwords were loaded from.
	StopwordsPath string
}

// StopwordsFile returns where EnsureResources keeps the English stopword list.
func StopwordsFile(dataDir string) string {
	return filepath.Join(dataDir, "resources", "stopwords", "english.txt")
}

// EnsureResources makes sure the stopword list exists under dataDir, writing
// the bundled copy when it is missing, and loads it. Calling it again is a
// no-op apart from re-reading the file, so a locally edited list is kept.
func EnsureResources(dataDir string) (*Resources, error) {
	path := StopwordsFile(dataDir)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating resource directory: %w", err)
		}
		if err := os.WriteFile(path, englishStopwords, 0o644); err != nil {
			return nil, fmt.Errorf("writing stopwords: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking stopwords: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopwords: %w", err)
	}
	defer f.Close()

	set, err := ReadStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("reading stopwords %s: %w", path, err)
	}
	return &Resources{Stopwords: set, StopwordsPath: path}, nil
}

// DefaultStopwords returns the bundled English list without touching disk.
func DefaultStopwords() StopwordSet {
	set, _ := ReadStopwords(bytes.NewReader(englishStopwords))
	return set
}
