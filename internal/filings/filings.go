// Package filings turns a directory of filing documents into a date-ordered
// feature table.
package filings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/TobiSchelling/FinSignals/internal/database"
	"github.com/TobiSchelling/FinSignals/internal/export"
	"github.com/TobiSchelling/FinSignals/internal/readability"
	"github.com/TobiSchelling/FinSignals/internal/sentiment"
	"github.com/TobiSchelling/FinSignals/internal/textproc"
)

// Record is the feature row for one document.
type Record struct {
	Date      string
	FormType  string
	Filename  string
	Path      string
	Fog       readability.Score
	Sentiment float64
}

// Feature converts r to its stored form.
func (r Record) Feature() database.FilingFeature {
	return database.FilingFeature{
		Date:      r.Date,
		FormType:  r.FormType,
		Filename:  r.Filename,
		Path:      r.Path,
		FogIndex:  r.Fog.Ptr(),
		Sentiment: r.Sentiment,
	}
}

// Result holds the results of a corpus run.
type Result struct {
	Records []Record
	// Skipped counts selected files that could not be read.
	Skipped int
}

// Features returns the records in stored form.
func (r *Result) Features() []database.FilingFeature {
	out := make([]database.FilingFeature, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Feature()
	}
	return out
}

// Processor extracts features with an explicit dictionary and stopword set.
type Processor struct {
	dict       *sentiment.Dictionary
	stopwords  textproc.StopwordSet
	extensions map[string]struct{}
	logger     *zap.Logger
}

// NewProcessor creates a Processor. Extensions are matched
// case-insensitively; none means ".txt".
func NewProcessor(dict *sentiment.Dictionary, stopwords textproc.StopwordSet, extensions []string, logger *zap.Logger) *Processor {
	if len(extensions) == 0 {
		extensions = []string{".txt"}
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{dict: dict, stopwords: stopwords, extensions: exts, logger: logger}
}

// ProcessDocument scores one document. relPath feeds the metadata fallback
// and should be relative to the corpus root.
func (p *Processor) ProcessDocument(raw, relPath string) Record {
	meta := textproc.Extract(raw, relPath)
	clean := textproc.Normalize(raw)
	tokens := p.stopwords.Filter(textproc.Tokenize(clean))

	return Record{
		Date:      meta.Date,
		FormType:  meta.FormType,
		Filename:  filepath.Base(relPath),
		Sentiment: sentiment.Score(tokens, p.dict),
		Fog:       readability.GunningFog(clean),
	}
}

// ProcessCorpus walks root and scores every selected file. A missing or
// unreadable root is an error; an unreadable file is logged and skipped.
// Records are stably sorted by date, files without a date first.
func (p *Processor) ProcessCorpus(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	res := &Result{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			p.logger.Warn("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			res.Skipped++
			return nil
		}
		if d.IsDir() || !p.selected(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		raw, err := readDocument(path)
		if err != nil {
			p.logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
			res.Skipped++
			return nil
		}

		rec := p.ProcessDocument(raw, rel)
		rec.Path = path
		res.Records = append(res.Records, rec)

		fields := []zap.Field{
			zap.String("file", rel),
			zap.String("date", rec.Date),
			zap.String("form_type", rec.FormType),
			zap.Float64("sentiment", rec.Sentiment),
		}
		if rec.Fog.Available {
			fields = append(fields, zap.Float64("fog", rec.Fog.Value))
		} else {
			fields = append(fields, zap.String("fog_unavailable", rec.Fog.Reason))
		}
		p.logger.Info("processed filing", fields...)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("walking corpus: %w", walkErr)
	}

	sort.SliceStable(res.Records, func(i, j int) bool {
		return res.Records[i].Date < res.Records[j].Date
	})
	return res, nil
}

// Save replaces the stored feature table and writes it to csvPath.
func Save(db *database.DB, csvPath string, res *Result) error {
	features := res.Features()
	if err := db.ReplaceFilingFeatures(features); err != nil {
		return fmt.Errorf("storing filing features: %w", err)
	}
	if csvPath == "" {
		return nil
	}
	return export.WriteFile(csvPath, func(w io.Writer) error {
		return export.WriteFilings(w, features)
	})
}

func (p *Processor) selected(path string) bool {
	_, ok := p.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return textproc.DecodeLenient(data), nil
}
