package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const (
	googleNewsURL = "https://news.google.com/rss/search"
	// minFullText drops readability output too short to be an article body.
	minFullText = 100
)

// FeedSource searches an RSS news search endpoint (Google News style) with
// after:/before: date operators.
type FeedSource struct {
	feedURL  string
	query    string
	fullText bool
	parser   *gofeed.Parser
	client   *http.Client
	logger   *zap.Logger
}

// NewFeedSource creates a feed source. An empty query searches for the
// symbol passed to Fetch.
func NewFeedSource(feedURL, query string, fullText bool, logger *zap.Logger) *FeedSource {
	if feedURL == "" {
		feedURL = googleNewsURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: 30 * time.Second}
	parser := gofeed.NewParser()
	parser.Client = client
	return &FeedSource{
		feedURL:  feedURL,
		query:    query,
		fullText: fullText,
		parser:   parser,
		client:   client,
		logger:   logger,
	}
}

// SearchURL builds the feed URL for a window. before: is exclusive, so it is
// set to the day after to.
func (s *FeedSource) SearchURL(symbol string, from, to time.Time) string {
	q := s.query
	if q == "" {
		q = symbol
	}
	q = fmt.Sprintf("%s after:%s before:%s", q,
		from.UTC().Format(dateLayout), to.UTC().AddDate(0, 0, 1).Format(dateLayout))
	params := url.Values{
		"q":    {q},
		"hl":   {"en-US"},
		"gl":   {"US"},
		"ceid": {"US:en"},
	}
	return s.feedURL + "?" + params.Encode()
}

// Fetch parses the search feed for [from, to] and keeps items dated inside it.
func (s *FeedSource) Fetch(ctx context.Context, symbol string, from, to time.Time) ([]NewsArticle, error) {
	feed, err := s.parser.ParseURLWithContext(s.SearchURL(symbol, from, to), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing news feed: %w", err)
	}

	lo := from.UTC().Format(dateLayout)
	hi := to.UTC().Format(dateLayout)

	var articles []NewsArticle
	for _, item := range feed.Items {
		a, ok := parseItem(item)
		if !ok {
			continue
		}
		day := a.Timestamp.Format(dateLayout)
		if day < lo || day > hi {
			continue
		}
		if s.fullText && a.Summary == "" && a.URL != "" {
			a.Summary = s.fetchText(ctx, a.URL)
		}
		articles = append(articles, a)
	}

	s.logger.Debug("feed fetch",
		zap.String("symbol", symbol),
		zap.String("from", lo),
		zap.String("to", hi),
		zap.Int("items", len(feed.Items)),
		zap.Int("kept", len(articles)),
	)
	return articles, nil
}

func parseItem(item *gofeed.Item) (NewsArticle, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return NewsArticle{}, false
	}

	var ts *time.Time
	if item.PublishedParsed != nil {
		ts = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		ts = item.UpdatedParsed
	}
	if ts == nil {
		return NewsArticle{}, false
	}

	link := item.Link
	if link == "" {
		link = item.GUID
	}

	summary := stripHTML(item.Description)
	// Search feeds often repeat the title as the whole description.
	if summary == title {
		summary = ""
	}

	return NewsArticle{
		Timestamp: ts.UTC(),
		Headline:  title,
		Summary:   summary,
		Source:    sourceName(title, link),
		URL:       link,
	}, true
}

// sourceName prefers the " - Publisher" suffix that news search feeds append
// to titles, then the link's host.
func sourceName(title, link string) string {
	if i := strings.LastIndex(title, " - "); i > 0 && i+3 < len(title) {
		return strings.TrimSpace(title[i+3:])
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func stripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// fetchText returns the readable body of the article at link, or "" on any
// failure.
func (s *FeedSource) fetchText(ctx context.Context, link string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "FinSignals/1.0 (news research)")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("full text fetch failed", zap.String("url", link), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		s.logger.Debug("full text fetch failed", zap.String("url", link), zap.Int("status", resp.StatusCode))
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return ""
	}
	parsed, _ := url.Parse(link)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) < minFullText {
		return ""
	}
	return text
}
