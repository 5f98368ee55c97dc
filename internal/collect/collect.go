// Package collect provides the news sources the crawl pulls from.
package collect

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/FinSignals/internal/config"
)

const dateLayout = "2006-01-02"

// NewsArticle is one item returned by a news source.
type NewsArticle struct {
	Timestamp time.Time
	Headline  string
	Summary   string
	Source    string
	URL       string
}

// Source fetches company news published between from and to, inclusive of
// both calendar days. Implementations may truncate large result sets.
type Source interface {
	Fetch(ctx context.Context, symbol string, from, to time.Time) ([]NewsArticle, error)
}

// New returns the source selected by cfg.Source.
func New(cfg config.News, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(cfg.Source) {
	case "", "finnhub":
		c := NewFinnhubClient(cfg.Finnhub.BaseURL, os.Getenv(cfg.Finnhub.APIKeyEnv), logger)
		if !c.IsConfigured() {
			return nil, fmt.Errorf("finnhub api key not set: export %s or add it to .env", cfg.Finnhub.APIKeyEnv)
		}
		return c, nil
	case "feed":
		return NewFeedSource(cfg.Feed.URL, cfg.Feed.Query, cfg.Feed.FetchFullText, logger), nil
	default:
		return nil, fmt.Errorf("unknown news source %q", cfg.Source)
	}
}
