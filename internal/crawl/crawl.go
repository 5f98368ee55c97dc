// Package crawl accumulates the news sentiment table by walking backwards
// from the earliest stored date towards a target date, one window at a time.
//
// Each iteration moves through DETERMINE_WINDOW, FETCH, then either an empty
// result (terminal) or SCORE_AND_MERGE followed by PERSIST, and finally
// CHECK_TERMINATION. Every window is committed before the next fetch, so a
// crash loses at most the window in flight and a rerun resumes from the
// stored minimum date.
package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/FinSignals/internal/collect"
	"github.com/TobiSchelling/FinSignals/internal/database"
	"github.com/TobiSchelling/FinSignals/internal/sentiment"
)

// Outcome is why a crawl stopped.
type Outcome string

const (
	// OutcomeDone means the cursor reached the target date.
	OutcomeDone Outcome = "done"
	// OutcomeExhausted means a window came back empty. Older news may still
	// exist beyond a quiet period; the cursor is recorded for inspection.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeStalled means a non-empty window did not move the cursor.
	OutcomeStalled Outcome = "stalled"
	// OutcomeIterationLimit means MaxIterations windows were fetched.
	OutcomeIterationLimit Outcome = "iteration_limit"
	// OutcomeAborted means a fetch, persist or context error stopped the run.
	OutcomeAborted Outcome = "aborted"
)

// Store is the persisted news table.
type Store interface {
	MinNewsDate() (string, error)
	MergeNews(rows []database.NewsSentiment) (int, error)
}

// RunRecorder stores crawl history. A Store that also implements it gets
// every run recorded.
type RunRecorder interface {
	StartCrawlRun(symbol string) (string, error)
	FinishCrawlRun(id, outcome string, windows, fetched, added int, cursor, errMsg string) error
}

// Scorer rates a piece of news text.
type Scorer interface {
	PolarityScores(text string) sentiment.Polarity
}

// Options configures a Crawler.
type Options struct {
	Symbol        string
	TargetFrom    time.Time
	WindowDays    int
	RateLimit     time.Duration
	MaxIterations int
	// Now defaults to time.Now. It supplies the cursor for an empty table.
	Now func() time.Time
}

// Window is an inclusive range of calendar days.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) String() string {
	return w.From.Format(database.DateLayout) + ".." + w.To.Format(database.DateLayout)
}

// Plan describes what the next Run would do first.
type Plan struct {
	Cursor time.Time
	// Window is nil when the cursor is already at or before the target.
	Window *Window
}

// Result summarizes one Run.
type Result struct {
	RunID   string
	Outcome Outcome
	Windows int
	Fetched int
	Added   int
	// Cursor is the earliest stored date when the run stopped.
	Cursor time.Time
	Err    error
}

// Crawler drives the windowed fetch/merge loop. It is not safe for
// concurrent use.
type Crawler struct {
	opts    Options
	source  collect.Source
	store   Store
	scorer  Scorer
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a Crawler.
func New(opts Options, source collect.Source, store Store, scorer Scorer, logger *zap.Logger) (*Crawler, error) {
	if opts.Symbol == "" {
		return nil, fmt.Errorf("crawl: symbol is required")
	}
	if opts.WindowDays < 1 {
		return nil, fmt.Errorf("crawl: window days must be positive, got %d", opts.WindowDays)
	}
	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("crawl: max iterations must be positive, got %d", opts.MaxIterations)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.TargetFrom = toDay(opts.TargetFrom)
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Every(opts.RateLimit)
	}

	return &Crawler{
		opts:    opts,
		source:  source,
		store:   store,
		scorer:  scorer,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// Plan reports the cursor and the first window without fetching anything.
func (c *Crawler) Plan() (Plan, error) {
	cursor, err := c.cursor()
	if err != nil {
		return Plan{}, err
	}
	p := Plan{Cursor: cursor}
	if cursor.After(c.opts.TargetFrom) {
		w := c.window(cursor)
		p.Window = &w
	}
	return p, nil
}

// Run executes the state machine until a terminal outcome. The returned
// error is the abort cause, also available as Result.Err.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	rec, recording := c.store.(RunRecorder)
	if recording {
		id, err := rec.StartCrawlRun(c.opts.Symbol)
		if err != nil {
			c.logger.Warn("could not record crawl run", zap.Error(err))
			recording = false
		} else {
			res.RunID = id
		}
	}

	c.loop(ctx, res)

	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.Int("windows", res.Windows),
		zap.Int("fetched", res.Fetched),
		zap.Int("added", res.Added),
		zap.String("cursor", formatDay(res.Cursor)),
	}
	if res.Err != nil {
		c.logger.Error("crawl stopped", append(fields, zap.Error(res.Err))...)
	} else {
		c.logger.Info("crawl finished", fields...)
	}

	if recording {
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		if err := rec.FinishCrawlRun(res.RunID, string(res.Outcome), res.Windows, res.Fetched, res.Added,
			formatDay(res.Cursor), errMsg); err != nil {
			c.logger.Warn("could not record crawl outcome", zap.Error(err))
		}
	}
	return res, res.Err
}

func (c *Crawler) loop(ctx context.Context, res *Result) {
	abort := func(err error) {
		res.Outcome = OutcomeAborted
		res.Err = err
	}

	cursor, err := c.cursor()
	if err != nil {
		abort(err)
		return
	}
	res.Cursor = cursor

	for {
		// CHECK_TERMINATION
		if !cursor.After(c.opts.TargetFrom) {
			res.Outcome = OutcomeDone
			return
		}
		if res.Windows >= c.opts.MaxIterations {
			res.Outcome = OutcomeIterationLimit
			return
		}

		// DETERMINE_WINDOW
		w := c.window(cursor)

		// FETCH
		if err := c.limiter.Wait(ctx); err != nil {
			abort(fmt.Errorf("waiting for rate limit: %w", err))
			return
		}
		articles, err := c.source.Fetch(ctx, c.opts.Symbol, w.From, w.To)
		if err != nil {
			abort(fmt.Errorf("fetching %s: %w", w, err))
			return
		}
		res.Windows++
		res.Fetched += len(articles)

		if len(articles) == 0 {
			c.logger.Info("empty window",
				zap.String("window", w.String()),
				zap.String("cursor", formatDay(cursor)))
			res.Outcome = OutcomeExhausted
			return
		}

		// SCORE_AND_MERGE, PERSIST
		added, err := c.store.MergeNews(c.score(articles))
		if err != nil {
			abort(fmt.Errorf("persisting %s: %w", w, err))
			return
		}
		res.Added += added

		next, err := c.cursor()
		if err != nil {
			abort(err)
			return
		}
		c.logger.Info("window merged",
			zap.String("window", w.String()),
			zap.Int("fetched", len(articles)),
			zap.Int("added", added),
			zap.String("cursor", formatDay(next)))

		res.Cursor = next
		if !next.Before(cursor) && next.After(c.opts.TargetFrom) {
			res.Outcome = OutcomeStalled
			return
		}
		cursor = next
	}
}

// cursor returns the earliest stored date, or today when nothing is stored.
func (c *Crawler) cursor() (time.Time, error) {
	minDate, err := c.store.MinNewsDate()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading cursor: %w", err)
	}
	if minDate == "" {
		return toDay(c.opts.Now()), nil
	}
	t, err := database.ParseDate(minDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored date %q: %w", minDate, err)
	}
	return t, nil
}

func (c *Crawler) window(cursor time.Time) Window {
	from := cursor.AddDate(0, 0, -c.opts.WindowDays)
	if from.Before(c.opts.TargetFrom) {
		from = c.opts.TargetFrom
	}
	return Window{From: from, To: cursor}
}

func (c *Crawler) score(articles []collect.NewsArticle) []database.NewsSentiment {
	rows := make([]database.NewsSentiment, 0, len(articles))
	for _, a := range articles {
		p := c.scorer.PolarityScores(ArticleText(a))
		rows = append(rows, database.NewsSentiment{
			Date:     database.FormatDate(a.Timestamp),
			Headline: a.Headline,
			Neg:      p.Neg,
			Neu:      p.Neu,
			Pos:      p.Pos,
			Compound: p.Compound,
			Source:   a.Source,
			URL:      a.URL,
		})
	}
	return rows
}

// ArticleText is the text scored for an article: headline and summary on
// separate lines, trimmed.
func ArticleText(a collect.NewsArticle) string {
	return strings.TrimSpace(a.Headline + "\n" + a.Summary)
}

func toDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(database.DateLayout)
}
