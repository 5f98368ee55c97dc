// Package pipeline wires configuration, storage and the two extraction steps
// together for the CLI and the scheduler.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/FinSignals/internal/collect"
	"github.com/TobiSchelling/FinSignals/internal/config"
	"github.com/TobiSchelling/FinSignals/internal/crawl"
	"github.com/TobiSchelling/FinSignals/internal/database"
	"github.com/TobiSchelling/FinSignals/internal/export"
	"github.com/TobiSchelling/FinSignals/internal/filings"
	"github.com/TobiSchelling/FinSignals/internal/sentiment"
	"github.com/TobiSchelling/FinSignals/internal/textproc"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Err returns the first step error.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Pipeline runs the filing and news steps for one configured symbol.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	stopwords textproc.StopwordSet
	logger    *zap.Logger

	// NewSource builds the news source; replaced in tests.
	NewSource func() (collect.Source, error)
	// Now is the crawl clock.
	Now func() time.Time
}

// New creates a pipeline.
func New(cfg *config.Config, db *database.DB, stopwords textproc.StopwordSet, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		cfg:       cfg,
		db:        db,
		stopwords: stopwords,
		logger:    logger,
		Now:       time.Now,
	}
	p.NewSource = func() (collect.Source, error) {
		return collect.New(cfg.News, logger.Named("collect"))
	}
	return p
}

// Run executes the filing step and then the news step. A failing step does
// not prevent the other from running.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	fr, err := p.RunFilings(ctx)
	step := StepResult{Name: "filings", Err: err}
	if err == nil {
		step.Summary = fmt.Sprintf("%d documents processed, %d skipped", len(fr.Records), fr.Skipped)
	}
	r.Steps = append(r.Steps, step)

	if ctx.Err() != nil {
		return r
	}

	cr, err := p.RunNews(ctx)
	step = StepResult{Name: "news", Err: err}
	if cr != nil {
		step.Summary = summarizeCrawl(cr)
	}
	r.Steps = append(r.Steps, step)
	return r
}

// DryRun reports the next crawl window without fetching or writing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}
	r.Steps = append(r.Steps, StepResult{
		Name:    "filings",
		Summary: fmt.Sprintf("would walk %s", p.cfg.Filings.CorpusDir),
	})

	c, err := p.crawler(nil)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "news", Err: err})
		return r
	}
	plan, err := c.Plan()
	step := StepResult{Name: "news", Err: err}
	if err == nil {
		step.Summary = DescribePlan(plan, p.cfg.News.TargetFrom())
	}
	r.Steps = append(r.Steps, step)
	return r
}

// RunFilings processes the corpus, replaces the stored features and writes
// the feature CSV.
func (p *Pipeline) RunFilings(ctx context.Context) (*filings.Result, error) {
	dict, err := sentiment.LoadDictionary(p.cfg.Filings.DictionaryPath)
	if err != nil {
		return nil, err
	}
	proc := filings.NewProcessor(dict, p.stopwords, p.cfg.Filings.Extensions, p.logger.Named("filings"))

	res, err := proc.ProcessCorpus(ctx, p.cfg.Filings.CorpusDir)
	if err != nil {
		return nil, err
	}
	csvPath := p.cfg.OutputPath(p.cfg.Filings.OutputCSV)
	if err := filings.Save(p.db, csvPath, res); err != nil {
		return nil, err
	}
	p.logger.Info("filing features written",
		zap.Int("documents", len(res.Records)),
		zap.Int("skipped", res.Skipped),
		zap.String("csv", csvPath))
	return res, nil
}

// RunNews runs the crawl and rewrites the news CSV from the stored table,
// which still happens when the crawl aborts part way.
func (p *Pipeline) RunNews(ctx context.Context) (*crawl.Result, error) {
	src, err := p.NewSource()
	if err != nil {
		return nil, err
	}
	c, err := p.crawler(src)
	if err != nil {
		return nil, err
	}

	res, crawlErr := c.Run(ctx)
	if err := p.ExportNews(); err != nil {
		if crawlErr != nil {
			return res, crawlErr
		}
		return res, err
	}
	return res, crawlErr
}

// ExportNews writes the whole news table to its configured CSV.
func (p *Pipeline) ExportNews() error {
	rows, err := p.db.ListNews(database.NewsFilter{})
	if err != nil {
		return fmt.Errorf("reading news: %w", err)
	}
	return export.WriteFile(p.cfg.OutputPath(p.cfg.News.OutputCSV), func(w io.Writer) error {
		return export.WriteNews(w, rows)
	})
}

// ExportFilings writes the stored filing features to their configured CSV.
func (p *Pipeline) ExportFilings() error {
	rows, err := p.db.ListFilingFeatures()
	if err != nil {
		return fmt.Errorf("reading filing features: %w", err)
	}
	return export.WriteFile(p.cfg.OutputPath(p.cfg.Filings.OutputCSV), func(w io.Writer) error {
		return export.WriteFilings(w, rows)
	})
}

func (p *Pipeline) crawler(src collect.Source) (*crawl.Crawler, error) {
	n := p.cfg.News
	return crawl.New(crawl.Options{
		Symbol:        p.cfg.Symbol,
		TargetFrom:    n.TargetFrom(),
		WindowDays:    n.WindowDays,
		RateLimit:     n.RateLimit(),
		MaxIterations: n.MaxIterations,
		Now:           p.Now,
	}, src, p.db, sentiment.NewAnalyzer(), p.logger.Named("crawl"))
}

// DescribePlan renders a crawl plan for humans.
func DescribePlan(plan crawl.Plan, target time.Time) string {
	cursor := plan.Cursor.Format(database.DateLayout)
	if plan.Window == nil {
		return fmt.Sprintf("cursor %s is at or before target %s, nothing to fetch",
			cursor, target.Format(database.DateLayout))
	}
	return fmt.Sprintf("cursor %s, next window %s", cursor, plan.Window)
}

func summarizeCrawl(r *crawl.Result) string {
	return fmt.Sprintf("%s after %d windows: %d fetched, %d added, cursor %s",
		r.Outcome, r.Windows, r.Fetched, r.Added, r.Cursor.Format(database.DateLayout))
}
