package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

const dateLayout = "2006-01-02"

type Config struct {
	Symbol   string   `yaml:"symbol"`
	Filings  Filings  `yaml:"filings"`
	News     News     `yaml:"news"`
	Output   Output   `yaml:"output"`
	Schedule Schedule `yaml:"schedule"`
	Logging  Logging  `yaml:"logging"`
}

type Filings struct {
	CorpusDir      string   `yaml:"corpus_dir"`
	DictionaryPath string   `yaml:"dictionary_path"`
	Extensions     []string `yaml:"extensions"`
	OutputCSV      string   `yaml:"output_csv"`
}

type News struct {
	Source           string        `yaml:"source"`
	TargetFromDate   string        `yaml:"target_from_date"`
	WindowDays       int           `yaml:"window_days"`
	RateLimitSeconds int           `yaml:"rate_limit_seconds"`
	MaxIterations    int           `yaml:"max_iterations"`
	OutputCSV        string        `yaml:"output_csv"`
	Finnhub          FinnhubConfig `yaml:"finnhub"`
	Feed             FeedConfig    `yaml:"feed"`
}

type FinnhubConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

type FeedConfig struct {
	URL           string `yaml:"url"`
	Query         string `yaml:"query"`
	FetchFullText bool   `yaml:"fetch_full_text"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Schedule struct {
	Cron string `yaml:"cron"`
}

type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ConfigDir returns the XDG config directory for finsignals.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "finsignals")
}

// DataDir returns the XDG data directory for finsignals.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "finsignals")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/finsignals/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'finsignals init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file. A .env file next to the config
// (or in the working directory) is loaded first so API keys referenced by
// *_env settings resolve; variables already set in the environment win.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Symbol: "RBLX",
		Filings: Filings{
			Extensions: []string{".txt"},
			OutputCSV:  "sec_filings_features.csv",
		},
		News: News{
			Source:           "finnhub",
			TargetFromDate:   "2025-06-10",
			WindowDays:       30,
			RateLimitSeconds: 60,
			MaxIterations:    500,
			OutputCSV:        "clean_news_sentiment.csv",
			Finnhub: FinnhubConfig{
				APIKeyEnv: "FINNHUB_KEY",
				BaseURL:   "https://finnhub.io/api/v1",
			},
			Feed: FeedConfig{
				URL: "https://news.google.com/rss/search",
			},
		},
		Schedule: Schedule{Cron: "0 6 * * *"},
		Logging:  Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("config: symbol must be set")
	}
	if _, err := time.Parse(dateLayout, c.News.TargetFromDate); err != nil {
		return fmt.Errorf("config: news.target_from_date %q: %w", c.News.TargetFromDate, err)
	}
	if c.News.WindowDays <= 0 {
		return fmt.Errorf("config: news.window_days must be positive, got %d", c.News.WindowDays)
	}
	if c.News.RateLimitSeconds < 0 {
		return fmt.Errorf("config: news.rate_limit_seconds must not be negative")
	}
	if c.News.MaxIterations <= 0 {
		return fmt.Errorf("config: news.max_iterations must be positive, got %d", c.News.MaxIterations)
	}
	switch c.News.Source {
	case "finnhub", "feed":
	default:
		return fmt.Errorf("config: unknown news.source %q (want finnhub or feed)", c.News.Source)
	}
	return nil
}

// TargetFrom returns the crawl floor as a UTC midnight time.
func (n News) TargetFrom() time.Time {
	t, _ := time.Parse(dateLayout, n.TargetFromDate)
	return t
}

// RateLimit returns the pause enforced between successive news fetches.
func (n News) RateLimit() time.Duration {
	return time.Duration(n.RateLimitSeconds) * time.Second
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// OutputPath resolves an output file name against the data directory unless
// it is already absolute.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.GetDataDir(), name)
}

func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		// Overload is not used: real environment variables take precedence.
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
