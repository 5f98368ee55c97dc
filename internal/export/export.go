// Package export writes the feature tables as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/TobiSchelling/FinSignals/internal/database"
)

var (
	filingHeader = []string{"date", "form_type", "filename", "fog_index", "sentiment"}
	newsHeader   = []string{"date", "headline", "neg", "neu", "pos", "compound"}
)

// WriteFilings writes the filing feature table. A missing fog index is an
// empty cell.
func WriteFilings(w io.Writer, rows []database.FilingFeature) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(filingHeader); err != nil {
		return err
	}
	for _, r := range rows {
		fog := ""
		if r.FogIndex != nil {
			fog = formatFloat(*r.FogIndex)
		}
		if err := cw.Write([]string{r.Date, r.FormType, r.Filename, fog, formatFloat(r.Sentiment)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteNews writes the news sentiment table in the order given.
func WriteNews(w io.Writer, rows []database.NewsSentiment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(newsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date, r.Headline,
			formatFloat(r.Neg), formatFloat(r.Neu), formatFloat(r.Pos), formatFloat(r.Compound),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes to path through a temp file in the same directory, so
// readers never see a partial table.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
