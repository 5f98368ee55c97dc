package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient fetches company news from the Finnhub REST API.
type FinnhubClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewFinnhubClient creates a client. An empty baseURL uses the public API.
func NewFinnhubClient(baseURL, apiKey string, logger *zap.Logger) *FinnhubClient {
	if baseURL == "" {
		baseURL = finnhubBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinnhubClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// IsConfigured returns whether the API key is available.
func (c *FinnhubClient) IsConfigured() bool {
	return c.apiKey != ""
}

type finnhubItem struct {
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
}

// Fetch calls /company-news for symbol over [from, to].
func (c *FinnhubClient) Fetch(ctx context.Context, symbol string, from, to time.Time) ([]NewsArticle, error) {
	params := url.Values{
		"symbol": {symbol},
		"from":   {from.UTC().Format(dateLayout)},
		"to":     {to.UTC().Format(dateLayout)},
		"token":  {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/company-news?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building finnhub request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finnhub request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("finnhub HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var items []finnhubItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding finnhub response: %w", err)
	}

	articles := make([]NewsArticle, 0, len(items))
	for _, it := range items {
		articles = append(articles, NewsArticle{
			Timestamp: time.Unix(it.Datetime, 0).UTC(),
			Headline:  it.Headline,
			Summary:   it.Summary,
			Source:    it.Source,
			URL:       it.URL,
		})
	}

	c.logger.Debug("finnhub fetch",
		zap.String("symbol", symbol),
		zap.String("from", params.Get("from")),
		zap.String("to", params.Get("to")),
		zap.Int("items", len(articles)),
	)
	return articles, nil
}
