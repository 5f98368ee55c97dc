package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/FinSignals/internal/database"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func sampleData() Data {
	return Data{
		Symbol:    "RBLX",
		Generated: time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC),
		Filings: []database.FilingFeature{
			{Date: "", FormType: "", Filename: "x.txt", Sentiment: 0},
			{Date: "2021-03-01", FormType: "10K", Filename: "a.txt", FogIndex: f64(20), Sentiment: -0.5},
			{Date: "2021-05-01", FormType: "10Q", Filename: "b.txt", FogIndex: f64(18), Sentiment: 0.2},
			{Date: "2021-08-01", FormType: "10Q", Filename: "c.txt", FogIndex: f64(16), Sentiment: 0.4},
		},
		News: []database.NewsSentiment{
			{Date: "2025-06-11", Headline: "Roblox | bookings *soar*", Compound: 0.8},
			{Date: "2025-06-20", Headline: "Roblox sued", Compound: -0.6},
			{Date: "2025-07-02", Headline: "Roblox update", Compound: 0.0},
		},
		Runs: []database.CrawlRun{
			{StartedAt: "2025-07-10T08:00:00Z", Outcome: str("done"), Windows: 2, Fetched: 3, Added: 3, Cursor: str("2025-06-11")},
		},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleData())

	assert.True(t, strings.HasPrefix(out, "# RBLX signal report"))
	assert.Contains(t, out, "4 documents from 2021-03-01 to 2021-08-01.")
	assert.Contains(t, out, "| 10K | 1 | -0.500 | 20.00 |")
	assert.Contains(t, out, "| 10Q | 2 | 0.300 | 17.00 |")
	assert.Contains(t, out, "| unknown | 1 | 0.000 | n/a |")
	assert.Contains(t, out, "| 2025-06 | 2 | 0.100 | 1 | 1 |")
	assert.Contains(t, out, "| 2025-07 | 1 | 0.000 | 0 | 0 |")
	assert.Contains(t, out, `- 2025-06-11 Roblox \| bookings \*soar\* (0.800)`)
	assert.Contains(t, out, "- 2025-06-20 Roblox sued (-0.600)")
	assert.Contains(t, out, "| 2025-07-10T08:00:00Z | done | 2 | 3 | 3 | 2025-06-11 |")
}

func TestMarkdownEmpty(t *testing.T) {
	out := Markdown(Data{Symbol: "RBLX"})
	assert.Contains(t, out, "No filings processed.")
	assert.Contains(t, out, "No news collected.")
	assert.NotContains(t, out, "Recent crawls")
}

func TestHTML(t *testing.T) {
	html, err := HTML("RBLX <report>", Markdown(sampleData()))
	require.NoError(t, err)

	assert.Contains(t, html, "<title>RBLX &lt;report&gt;</title>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<h1>RBLX signal report</h1>")
	assert.NotContains(t, html, "<soar>")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	mdPath, htmlPath, err := Write(dir, sampleData())
	require.NoError(t, err)

	mdData, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(mdData), "## News")

	htmlData, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(htmlData), "<!DOCTYPE html>"))
}
