package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/FinSignals/internal/collect"
	"github.com/TobiSchelling/FinSignals/internal/config"
	"github.com/TobiSchelling/FinSignals/internal/database"
	"github.com/TobiSchelling/FinSignals/internal/textproc"
)

type staticSource struct {
	articles []collect.NewsArticle
	err      error
}

func (s staticSource) Fetch(ctx context.Context, symbol string, from, to time.Time) ([]collect.NewsArticle, error) {
	return s.articles, s.err
}

const dictCSV = "Word,Seq_num,Negative,Positive\nLOSS,1,2009,0\nGROWTH,2,0,2009\n"

func setup(t *testing.T) (*Pipeline, *config.Config, *database.DB) {
	t.Helper()
	dir := t.TempDir()

	corpus := filepath.Join(dir, "corpus", "10-K", "a")
	require.NoError(t, os.MkdirAll(corpus, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "full-submission.txt"),
		[]byte("FILED AS OF DATE: 20210301\nGrowth offset the loss. Growth again."), 0o644))

	dictPath := filepath.Join(dir, "dict.csv")
	require.NoError(t, os.WriteFile(dictPath, []byte(dictCSV), 0o644))

	cfg := &config.Config{
		Symbol: "RBLX",
		Filings: config.Filings{
			CorpusDir:      filepath.Join(dir, "corpus"),
			DictionaryPath: dictPath,
			Extensions:     []string{".txt"},
			OutputCSV:      "filings.csv",
		},
		News: config.News{
			Source:         "finnhub",
			TargetFromDate: "2025-06-10",
			WindowDays:     30,
			MaxIterations:  10,
			OutputCSV:      "news.csv",
		},
		Output: config.Output{DataDir: filepath.Join(dir, "data")},
	}

	db, err := database.Open(filepath.Join(dir, "data", "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p := New(cfg, db, textproc.DefaultStopwords(), nil)
	p.Now = func() time.Time { return time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC) }
	p.NewSource = func() (collect.Source, error) {
		return staticSource{articles: []collect.NewsArticle{
			{Timestamp: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), Headline: "Roblox rallies", Summary: "Great quarter"},
		}}, nil
	}
	return p, cfg, db
}

func TestRun(t *testing.T) {
	p, cfg, db := setup(t)

	r := p.Run(context.Background())
	require.NoError(t, r.Err())
	require.Len(t, r.Steps, 2)
	assert.Equal(t, "1 documents processed, 0 skipped", r.Steps[0].Summary)
	assert.True(t, strings.HasPrefix(r.Steps[1].Summary, "done after 1 windows"))

	features, err := db.ListFilingFeatures()
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.InDelta(t, 1.0/3.0, features[0].Sentiment, 1e-9)

	filingCSV, err := os.ReadFile(cfg.OutputPath("filings.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(filingCSV), "2021-03-01,10K,full-submission.txt,")

	newsCSV, err := os.ReadFile(cfg.OutputPath("news.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(newsCSV), "2025-06-10,Roblox rallies,")
}

func TestRunContinuesAfterFilingFailure(t *testing.T) {
	p, cfg, _ := setup(t)
	cfg.Filings.DictionaryPath = filepath.Join(t.TempDir(), "missing.csv")

	r := p.Run(context.Background())
	require.Len(t, r.Steps, 2)
	assert.Error(t, r.Steps[0].Err)
	assert.NoError(t, r.Steps[1].Err)
	assert.ErrorContains(t, r.Err(), "filings")
}

func TestRunNewsAbortStillExports(t *testing.T) {
	p, cfg, _ := setup(t)
	p.NewSource = func() (collect.Source, error) {
		return staticSource{err: errors.New("rate limited")}, nil
	}

	res, err := p.RunNews(context.Background())
	require.Error(t, err)
	assert.Equal(t, "aborted", string(res.Outcome))

	data, err := os.ReadFile(cfg.OutputPath("news.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,headline,neg,neu,pos,compound\n", string(data))
}

func TestDryRun(t *testing.T) {
	p, _, db := setup(t)

	r := p.DryRun()
	require.NoError(t, r.Err())
	assert.Equal(t, "cursor 2025-07-10, next window 2025-06-10..2025-07-10", r.Steps[1].Summary)

	n, err := db.CountNews()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = db.MergeNews([]database.NewsSentiment{{Date: "2025-06-01", Headline: "old"}})
	require.NoError(t, err)
	r = p.DryRun()
	assert.Equal(t, "cursor 2025-06-01 is at or before target 2025-06-10, nothing to fetch", r.Steps[1].Summary)
}

func TestExportFilings(t *testing.T) {
	p, cfg, db := setup(t)
	require.NoError(t, db.ReplaceFilingFeatures([]database.FilingFeature{
		{Date: "2020-01-01", FormType: "8K", Filename: "x.txt", Path: "x.txt", Sentiment: 0.5},
	}))

	require.NoError(t, p.ExportFilings())
	data, err := os.ReadFile(cfg.OutputPath("filings.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,form_type,filename,fog_index,sentiment\n2020-01-01,8K,x.txt,,0.5\n", string(data))
}

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	p, _, _ := setup(t)
	err := p.Schedule(context.Background(), "not a cron spec")
	assert.Error(t, err)
}

func TestScheduleStopsOnCancel(t *testing.T) {
	p, _, _ := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, p.Schedule(ctx, "0 6 * * *"))
}
