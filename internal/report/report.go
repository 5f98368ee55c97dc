// Package report renders a Markdown and HTML summary of the stored feature
// tables.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/FinSignals/internal/database"
)

// headlineCount is how many extreme headlines each list shows.
const headlineCount = 3

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.6rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Data is everything a report summarizes.
type Data struct {
	Symbol    string
	Generated time.Time
	Filings   []database.FilingFeature
	News      []database.NewsSentiment
	Runs      []database.CrawlRun
}

// Markdown renders the report body.
func Markdown(d Data) string {
	sections := []string{
		fmt.Sprintf("# %s signal report\n\nGenerated %s.", d.Symbol, d.Generated.UTC().Format(time.RFC3339)),
		filingSection(d.Filings),
		newsSection(d.News),
	}
	if len(d.Runs) > 0 {
		sections = append(sections, runSection(d.Runs))
	}
	return strings.Join(sections, "\n\n---\n\n") + "\n"
}

// HTML converts Markdown output into a standalone page.
func HTML(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body.String())}) //nolint: gosec
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return out.String(), nil
}

// Write renders d into report.md and report.html under dir and returns both
// paths.
func Write(dir string, d Data) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating report directory: %w", err)
	}
	text := Markdown(d)
	html, err := HTML(d.Symbol+" signal report", text)
	if err != nil {
		return "", "", err
	}

	mdPath := filepath.Join(dir, "report.md")
	htmlPath := filepath.Join(dir, "report.html")
	if err := os.WriteFile(mdPath, []byte(text), 0o644); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", mdPath, err)
	}
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", htmlPath, err)
	}
	return mdPath, htmlPath, nil
}

type filingGroup struct {
	form      string
	count     int
	sentiment float64
	fog       float64
	fogCount  int
}

func filingSection(rows []database.FilingFeature) string {
	if len(rows) == 0 {
		return "## Filings\n\nNo filings processed."
	}

	groups := make(map[string]*filingGroup)
	for _, r := range rows {
		form := r.FormType
		if form == "" {
			form = "unknown"
		}
		g, ok := groups[form]
		if !ok {
			g = &filingGroup{form: form}
			groups[form] = g
		}
		g.count++
		g.sentiment += r.Sentiment
		if r.FogIndex != nil {
			g.fog += *r.FogIndex
			g.fogCount++
		}
	}
	forms := make([]string, 0, len(groups))
	for f := range groups {
		forms = append(forms, f)
	}
	sort.Strings(forms)

	var b strings.Builder
	fmt.Fprintf(&b, "## Filings\n\n%d documents from %s to %s.\n\n", len(rows), firstDate(rows), rows[len(rows)-1].Date)
	b.WriteString("| Form | Documents | Mean sentiment | Mean fog |\n|---|---:|---:|---:|\n")
	for _, f := range forms {
		g := groups[f]
		fog := "n/a"
		if g.fogCount > 0 {
			fog = fmt.Sprintf("%.2f", g.fog/float64(g.fogCount))
		}
		fmt.Fprintf(&b, "| %s | %d | %.3f | %s |\n", g.form, g.count, g.sentiment/float64(g.count), fog)
	}
	return strings.TrimRight(b.String(), "\n")
}

// firstDate skips undated rows, which sort first.
func firstDate(rows []database.FilingFeature) string {
	for _, r := range rows {
		if r.Date != "" {
			return r.Date
		}
	}
	return "n/a"
}

type month struct {
	key      string
	count    int
	compound float64
	positive int
	negative int
}

func newsSection(rows []database.NewsSentiment) string {
	if len(rows) == 0 {
		return "## News\n\nNo news collected."
	}

	var months []*month
	byKey := make(map[string]*month)
	for _, r := range rows {
		key := r.Date
		if len(key) >= 7 {
			key = key[:7]
		}
		m, ok := byKey[key]
		if !ok {
			m = &month{key: key}
			byKey[key] = m
			months = append(months, m)
		}
		m.count++
		m.compound += r.Compound
		switch {
		case r.Compound >= 0.05:
			m.positive++
		case r.Compound <= -0.05:
			m.negative++
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].key < months[j].key })

	var b strings.Builder
	fmt.Fprintf(&b, "## News\n\n%d articles from %s to %s.\n\n", len(rows), rows[0].Date, rows[len(rows)-1].Date)
	b.WriteString("| Month | Articles | Mean compound | Positive | Negative |\n|---|---:|---:|---:|---:|\n")
	for _, m := range months {
		fmt.Fprintf(&b, "| %s | %d | %.3f | %d | %d |\n", m.key, m.count, m.compound/float64(m.count), m.positive, m.negative)
	}

	sorted := make([]database.NewsSentiment, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Compound > sorted[j].Compound })
	n := min(headlineCount, len(sorted))

	b.WriteString("\n### Most positive\n\n")
	for _, r := range sorted[:n] {
		fmt.Fprintf(&b, "- %s %s (%.3f)\n", r.Date, escape(r.Headline), r.Compound)
	}
	b.WriteString("\n### Most negative\n\n")
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		r := sorted[i]
		fmt.Fprintf(&b, "- %s %s (%.3f)\n", r.Date, escape(r.Headline), r.Compound)
	}
	return strings.TrimRight(b.String(), "\n")
}

func runSection(runs []database.CrawlRun) string {
	var b strings.Builder
	b.WriteString("## Recent crawls\n\n| Started | Outcome | Windows | Fetched | Added | Cursor |\n|---|---|---:|---:|---:|---|\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
			r.StartedAt, deref(r.Outcome, "running"), r.Windows, r.Fetched, r.Added, deref(r.Cursor, ""))
	}
	return strings.TrimRight(b.String(), "\n")
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`", "<", "&lt;", "|", `\|`,
)

// escape keeps headlines from being read as Markdown syntax.
func escape(s string) string {
	return mdEscaper.Replace(strings.Join(strings.Fields(s), " "))
}
