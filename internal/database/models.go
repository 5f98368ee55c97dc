package database

// NewsSentiment is one scored news article. (Date, Headline) identifies it.
type NewsSentiment struct {
	Date        string
	Headline    string
	Neg         float64
	Neu         float64
	Pos         float64
	Compound    float64
	Source      string
	URL         string
	CollectedAt *string
}

// FilingFeature is the feature row extracted from one filing document.
type FilingFeature struct {
	ID        int64
	Date      string
	FormType  string
	Filename  string
	Path      string
	FogIndex  *float64
	Sentiment float64
}

// CrawlRun records one invocation of the news crawl.
type CrawlRun struct {
	ID         string
	Symbol     string
	StartedAt  string
	FinishedAt *string
	Outcome    *string
	Windows    int
	Fetched    int
	Added      int
	Cursor     *string
	Error      *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	NewsRows      int
	NewsFrom      string
	NewsTo        string
	FilingRows    int
	FilingsByForm map[string]int
	CrawlRuns     int
}

// NewsFilter narrows ListNews. Empty bounds are open.
type NewsFilter struct {
	From string
	To   string
}
