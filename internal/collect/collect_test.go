package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/FinSignals/internal/config"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFinnhubFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company-news", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"symbol": q.Get("symbol"),
			"from":   q.Get("from"),
			"to":     q.Get("to"),
			"token":  q.Get("token"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"category":"company","datetime":1751414400,"headline":"Roblox beats","id":1,"source":"Reuters","summary":"Strong quarter.","url":"https://example.com/a"},
			{"category":"company","datetime":1751500799,"headline":"Roblox slips","id":2,"source":"Yahoo","summary":"","url":"https://example.com/b"}
		]`)
	}))
	defer srv.Close()

	c := NewFinnhubClient(srv.URL, "secret", nil)
	articles, err := c.Fetch(context.Background(), "RBLX", day("2025-06-03"), day("2025-07-03"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"symbol": "RBLX",
		"from":   "2025-06-03",
		"to":     "2025-07-03",
		"token":  "secret",
	}, gotQuery)

	require.Len(t, articles, 2)
	assert.Equal(t, "Roblox beats", articles[0].Headline)
	assert.Equal(t, "Strong quarter.", articles[0].Summary)
	assert.Equal(t, "Reuters", articles[0].Source)
	assert.Equal(t, "2025-07-02", articles[0].Timestamp.Format(dateLayout))
	assert.Equal(t, "2025-07-02", articles[1].Timestamp.Format(dateLayout))
	assert.Equal(t, time.UTC, articles[1].Timestamp.Location())
}

func TestFinnhubHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"API limit reached"}`)
	}))
	defer srv.Close()

	c := NewFinnhubClient(srv.URL, "secret", nil)
	_, err := c.Fetch(context.Background(), "RBLX", day("2025-06-03"), day("2025-07-03"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "API limit reached")
}

func TestFinnhubEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	articles, err := NewFinnhubClient(srv.URL, "k", nil).Fetch(context.Background(), "RBLX", day("2025-06-03"), day("2025-07-03"))
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestFinnhubContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFinnhubClient(srv.URL, "k", nil).Fetch(ctx, "RBLX", day("2025-06-03"), day("2025-07-03"))
	assert.Error(t, err)
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>search</title>
<item>
  <title>Roblox bookings surge - Reuters</title>
  <link>%[1]s/article/1</link>
  <pubDate>Wed, 02 Jul 2025 14:00:00 GMT</pubDate>
  <description>&lt;p&gt;Bookings &lt;b&gt;rose&lt;/b&gt; 50%%.&lt;/p&gt;</description>
</item>
<item>
  <title>Roblox faces lawsuit - Bloomberg</title>
  <link>%[1]s/article/2</link>
  <pubDate>Tue, 01 Jul 2025 09:00:00 GMT</pubDate>
  <description>Roblox faces lawsuit - Bloomberg</description>
</item>
<item>
  <title>Old news</title>
  <link>%[1]s/article/3</link>
  <pubDate>Mon, 02 Jun 2025 09:00:00 GMT</pubDate>
</item>
<item>
  <title>Undated</title>
  <link>%[1]s/article/4</link>
</item>
</channel>
</rss>`

const testArticle = `<html><head><title>Roblox faces lawsuit</title></head><body>
<article>
<h1>Roblox faces lawsuit</h1>
<p>Roblox Corporation is facing a new lawsuit filed by a group of parents who allege that the platform failed to protect younger users from harmful content and predatory behaviour.</p>
<p>The company said in a statement that it strongly disagrees with the claims and that it has invested heavily in safety systems, moderation staff and parental controls over the last several years.</p>
<p>Analysts expect the case to take several years to resolve and do not anticipate a material impact on bookings in the near term, although legal costs may rise.</p>
</article>
</body></html>`

func newFeedServer(t *testing.T, gotQ *string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rss/search":
			*gotQ = r.URL.Query().Get("q")
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprintf(w, testFeed, srv.URL)
		case r.URL.Path == "/article/2":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, testArticle)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedSearchURL(t *testing.T) {
	s := NewFeedSource("https://news.example/rss/search", "", false, nil)
	u := s.SearchURL("RBLX", day("2025-06-03"), day("2025-07-03"))
	assert.True(t, strings.HasPrefix(u, "https://news.example/rss/search?"))
	assert.Contains(t, u, "q=RBLX+after%3A2025-06-03+before%3A2025-07-04")

	s = NewFeedSource("https://news.example/rss/search", "Roblox stock", false, nil)
	assert.Contains(t, s.SearchURL("RBLX", day("2025-06-03"), day("2025-07-03")), "q=Roblox+stock+after")
}

func TestFeedFetch(t *testing.T) {
	var gotQ string
	srv := newFeedServer(t, &gotQ)

	s := NewFeedSource(srv.URL+"/rss/search", "", false, nil)
	articles, err := s.Fetch(context.Background(), "RBLX", day("2025-06-10"), day("2025-07-03"))
	require.NoError(t, err)

	assert.Equal(t, "RBLX after:2025-06-10 before:2025-07-04", gotQ)
	require.Len(t, articles, 2)

	assert.Equal(t, "Roblox bookings surge - Reuters", articles[0].Headline)
	assert.Equal(t, "Bookings rose 50%.", articles[0].Summary)
	assert.Equal(t, "Reuters", articles[0].Source)
	assert.Equal(t, "2025-07-02", articles[0].Timestamp.Format(dateLayout))

	assert.Equal(t, "Bloomberg", articles[1].Source)
	assert.Empty(t, articles[1].Summary)
}

func TestFeedFetchFullText(t *testing.T) {
	var gotQ string
	srv := newFeedServer(t, &gotQ)

	s := NewFeedSource(srv.URL+"/rss/search", "Roblox", true, nil)
	articles, err := s.Fetch(context.Background(), "RBLX", day("2025-06-10"), day("2025-07-03"))
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Bookings rose 50%.", articles[0].Summary)
	assert.Contains(t, articles[1].Summary, "strongly disagrees with the claims")
}

func TestFeedFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewFeedSource(srv.URL, "", false, nil).Fetch(context.Background(), "RBLX", day("2025-06-10"), day("2025-07-03"))
	assert.Error(t, err)
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "Reuters", sourceName("Headline - Reuters", "https://x.com"))
	assert.Equal(t, "example.com", sourceName("Headline", "https://www.example.com/a"))
	assert.Equal(t, "", sourceName("Headline", ""))
}

func TestNew(t *testing.T) {
	t.Setenv("TEST_FINNHUB_KEY", "abc")

	src, err := New(config.News{Source: "finnhub", Finnhub: config.FinnhubConfig{APIKeyEnv: "TEST_FINNHUB_KEY"}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FinnhubClient{}, src)

	src, err = New(config.News{Source: "feed"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FeedSource{}, src)

	_, err = New(config.News{Source: "finnhub", Finnhub: config.FinnhubConfig{APIKeyEnv: "TEST_FINNHUB_MISSING"}}, nil)
	assert.Error(t, err)

	_, err = New(config.News{Source: "bogus"}, nil)
	assert.Error(t, err)
}
