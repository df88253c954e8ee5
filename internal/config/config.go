package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The pacing defaults are deliberately
// conservative: the target sites rate-limit aggressively, and a harvest
// that gets the client banned saves nothing.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "novel"

	// DefaultTimeout is the per-request timeout. Chapter pages are
	// small, but the target sites are often slow under load.
	DefaultTimeout = 60 * time.Second

	// DefaultConcurrency is the number of simultaneous sub-page
	// fetches within one paginated chapter. Chapters themselves are
	// always fetched one at a time.
	DefaultConcurrency = 2

	// MinConcurrency and MaxConcurrency bound the --concurrency flag.
	// More than 5 parallel requests reliably triggers rate limiting.
	MinConcurrency = 1
	MaxConcurrency = 5

	// DefaultBaseDelay is the base pause between chapter fetches,
	// before the adaptive load factor and jitter are applied.
	DefaultBaseDelay = 1500 * time.Millisecond

	// MinBaseDelay and MaxBaseDelay bound the --base-delay flag.
	MinBaseDelay = 500 * time.Millisecond
	MaxBaseDelay = 5 * time.Second

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is generous for chapter HTML while preventing memory
	// exhaustion from unexpected responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// outputFileLayout names the default output file after the harvest
// start time.
const outputFileLayout = "20060102_150405"

// Config holds all configuration options for a harvest run.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// StartURL is the first chapter URL the chain traversal begins from.
	StartURL string

	// OutputFile is the path the harvested chapters are written to.
	// When empty, a timestamped file name in the working directory is
	// used.
	OutputFile string

	// Concurrency is the number of simultaneous sub-page fetches
	// within one paginated chapter. Normalize clamps it to
	// [MinConcurrency, MaxConcurrency].
	Concurrency int

	// BaseDelay is the base pause between chapter fetches. Normalize
	// clamps it to [MinBaseDelay, MaxBaseDelay].
	BaseDelay time.Duration

	// Timeout is the per-request timeout for each HTTP request.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// UserAgent overrides the User-Agent header sent with requests.
	// When empty, the fetcher's browser-like default is used.
	UserAgent string

	// ConfigFilePath is the path to the site-rules file. If empty, the
	// tool searches for .novel in the current directory, the home
	// directory, and the XDG config directory.
	ConfigFilePath string

	// SiteRules holds per-host extraction rules loaded from the
	// site-rules file. Populated by LoadConfigFile.
	SiteRules *File

	// DBDir is the directory path for the crawl history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether run summaries are saved to the crawl
	// history database.
	SaveToDB bool

	// MarkdownReportFile, when non-empty, is the path a Markdown run
	// report is written to in addition to the plain-text summary.
	MarkdownReportFile string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		Concurrency: DefaultConcurrency,
		BaseDelay:   DefaultBaseDelay,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// Normalize clamps out-of-range values to their bounds and fills in
// derived defaults. Out-of-range flag values are corrected rather than
// rejected so a harvest never fails over an overeager --concurrency.
func (c *Config) Normalize() {
	if c.Concurrency < MinConcurrency {
		c.Concurrency = MinConcurrency
	}
	if c.Concurrency > MaxConcurrency {
		c.Concurrency = MaxConcurrency
	}

	if c.BaseDelay < MinBaseDelay {
		c.BaseDelay = MinBaseDelay
	}
	if c.BaseDelay > MaxBaseDelay {
		c.BaseDelay = MaxBaseDelay
	}

	if c.MaxBodySize == 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}

	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile(time.Now())
	}
}

// DefaultOutputFile returns the timestamped default output file name
// for a harvest starting at t.
func DefaultOutputFile(t time.Time) string {
	return fmt.Sprintf("小说_%s.txt", t.Format(outputFileLayout))
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid. Call it
// after Normalize; clamped fields are always valid.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	u, err := url.Parse(c.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidStartURL
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// XDGDataDir returns the XDG data directory for the harvester.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/novel
// On macOS: ~/Library/Application Support/novel
// On Windows: %LOCALAPPDATA%\novel
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the harvester.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/novel
// On macOS: ~/Library/Application Support/novel
// On Windows: %APPDATA%\novel
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
