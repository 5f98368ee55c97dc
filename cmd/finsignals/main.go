package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/FinSignals/internal/config"
	"github.com/TobiSchelling/FinSignals/internal/database"
	"github.com/TobiSchelling/FinSignals/internal/logging"
	"github.com/TobiSchelling/FinSignals/internal/pipeline"
	"github.com/TobiSchelling/FinSignals/internal/report"
	"github.com/TobiSchelling/FinSignals/internal/textproc"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	resources  *textproc.Resources
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "finsignals",
	Short:   "Filing and news sentiment features for one ticker",
	Long:    "finsignals extracts sentiment and readability features from regulatory filings and incrementally builds a scored company news table.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Development)
		if err != nil {
			return err
		}

		resources, err = textproc.EnsureResources(cfg.GetDataDir())
		if err != nil {
			return fmt.Errorf("initializing resources: %w", err)
		}
		logger.Debug("resources ready", zap.String("stopwords", resources.StopwordsPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(filingsCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("finsignals", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/finsignals/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set the symbol, corpus and dictionary paths; put FINNHUB_KEY in a .env file next to it.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored tables and recent crawls",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Symbol: %s\nToday: %s\nTarget from: %s\n\n", cfg.Symbol, database.GetToday(), cfg.News.TargetFromDate)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Table", "Rows", "From", "To"})
		t.AppendRow(table.Row{"news_sentiment", stats.NewsRows, stats.NewsFrom, stats.NewsTo})
		t.AppendRow(table.Row{"filing_features", stats.FilingRows, "", ""})
		t.AppendRow(table.Row{"crawl_runs", stats.CrawlRuns, "", ""})
		t.Render()

		if len(stats.FilingsByForm) > 0 {
			forms := make([]string, 0, len(stats.FilingsByForm))
			for f := range stats.FilingsByForm {
				forms = append(forms, f)
			}
			sort.Strings(forms)

			fmt.Println()
			ft := table.NewWriter()
			ft.SetOutputMirror(os.Stdout)
			ft.SetStyle(table.StyleLight)
			ft.AppendHeader(table.Row{"Form", "Documents"})
			for _, f := range forms {
				label := f
				if label == "" {
					label = "(unknown)"
				}
				ft.AppendRow(table.Row{label, stats.FilingsByForm[f]})
			}
			ft.Render()
		}

		runs, err := db.RecentCrawlRuns(5)
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			fmt.Println("\nRecent crawls:")
			printRuns(runs)
		}
		return nil
	},
}

// --- filings command ---

var filingsCmd = &cobra.Command{
	Use:   "filings",
	Short: "Extract sentiment and readability features from the filing corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		p, db, err := newPipeline()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := p.RunFilings(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("\nProcessed %d documents (%d skipped).\n", len(res.Records), res.Skipped)
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Date", "Form", "File", "Fog", "Sentiment"})
		for _, r := range res.Records {
			t.AppendRow(table.Row{r.Date, r.FormType, r.Filename, r.Fog.String(), fmt.Sprintf("%.4f", r.Sentiment)})
		}
		t.Render()
		fmt.Printf("Features written to %s\n", cfg.OutputPath(cfg.Filings.OutputCSV))
		return nil
	},
}

// --- news command ---

var newsDryRun bool

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Crawl news backwards to the target date and merge scored rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, db, err := newPipeline()
		if err != nil {
			return err
		}
		defer db.Close()

		if newsDryRun {
			r := p.DryRun()
			step := r.Steps[len(r.Steps)-1]
			if step.Err != nil {
				return step.Err
			}
			fmt.Println(step.Summary)
			return nil
		}

		ctx, stop := signalContext()
		defer stop()

		res, err := p.RunNews(ctx)
		if res != nil {
			fmt.Printf("\nCrawl %s: %d windows, %d fetched, %d added, cursor %s\n",
				res.Outcome, res.Windows, res.Fetched, res.Added, res.Cursor.Format(database.DateLayout))
			fmt.Printf("News table written to %s\n", cfg.OutputPath(cfg.News.OutputCSV))
		}
		return err
	},
}

func init() {
	newsCmd.Flags().BoolVar(&newsDryRun, "dry-run", false, "Show the next window without fetching")
}

// --- run command ---

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run both steps: filings -> news",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, db, err := newPipeline()
		if err != nil {
			return err
		}
		defer db.Close()

		var result *pipeline.Result
		if runDryRun {
			result = p.DryRun()
		} else {
			ctx, stop := signalContext()
			defer stop()
			result = p.Run(ctx)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		return result.Err()
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show what would be done without executing")
}

// --- export command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Rewrite both CSV tables from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, db, err := newPipeline()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := p.ExportFilings(); err != nil {
			return err
		}
		if err := p.ExportNews(); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\nWrote %s\n",
			cfg.OutputPath(cfg.Filings.OutputCSV), cfg.OutputPath(cfg.News.OutputCSV))
		return nil
	},
}

// --- report command ---

var reportDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a Markdown and HTML summary of the stored tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		features, err := db.ListFilingFeatures()
		if err != nil {
			return err
		}
		news, err := db.ListNews(database.NewsFilter{})
		if err != nil {
			return err
		}
		runs, err := db.RecentCrawlRuns(10)
		if err != nil {
			return err
		}

		dir := reportDir
		if dir == "" {
			dir = filepath.Join(cfg.GetDataDir(), "reports")
		}
		mdPath, htmlPath, err := report.Write(dir, report.Data{
			Symbol:    cfg.Symbol,
			Generated: time.Now(),
			Filings:   features,
			News:      news,
			Runs:      runs,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\nWrote %s\n", mdPath, htmlPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportDir, "out", "o", "", "Output directory (default <data_dir>/reports)")
}

// --- schedule command ---

var scheduleSpec string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run both steps on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, db, err := newPipeline()
		if err != nil {
			return err
		}
		defer db.Close()

		spec := scheduleSpec
		if spec == "" {
			spec = cfg.Schedule.Cron
		}

		ctx, stop := signalContext()
		defer stop()

		fmt.Printf("Scheduled on %q. Press Ctrl+C to stop.\n", spec)
		return p.Schedule(ctx, spec)
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "", "Cron expression (default from config)")
}

func printRuns(runs []database.CrawlRun) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Started", "Outcome", "Windows", "Fetched", "Added", "Cursor", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.StartedAt, deref(r.Outcome, "running"), r.Windows, r.Fetched, r.Added,
			deref(r.Cursor, ""), deref(r.Error, "")})
	}
	t.Render()
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newPipeline() (*pipeline.Pipeline, *database.DB, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(cfg, db, resources.Stopwords, logger), db, nil
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "finsignals.db")
	return database.Open(dbPath, logger.Named("database"))
}
