package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jianjiandamowang97/novel/internal/config"
	"github.com/jianjiandamowang97/novel/internal/database"
	"github.com/jianjiandamowang97/novel/internal/extract"
	"github.com/jianjiandamowang97/novel/internal/fetcher"
	"github.com/jianjiandamowang97/novel/internal/log"
	"github.com/jianjiandamowang97/novel/internal/model"
	"github.com/jianjiandamowang97/novel/internal/pacing"
	"github.com/jianjiandamowang97/novel/internal/report"
	"github.com/jianjiandamowang97/novel/internal/sink"
	"github.com/jianjiandamowang97/novel/internal/walker"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <start-url>",
		Short: "Harvest a chapter chain starting from the given URL",
		Long: `Crawl walks a chain of chapter pages starting from the given URL.

Each chapter is fetched, its sub-pages (for chapters split across several
pages) are merged in order, and the cleaned text is appended to a single
output file. The walk follows each page's next-chapter link and stops when
a chapter has no next link, or aborts after too many consecutive failures.

Examples:
  # Harvest a novel into a timestamped file in the current directory
  novel crawl http://www.example.com/book/1234.html

  # Choose the output file and raise the sub-page concurrency
  novel crawl -o mybook.txt -n 4 http://www.example.com/book/1234.html

  # Slow down for a rate-limited site
  novel crawl --base-delay 3s http://www.example.com/book/1234.html

  # Use site-specific extraction rules
  novel crawl -c myrules.yaml http://www.example.com/book/1234.html

Site-rules file (.novel) example:
  sites:
    www.example.com:
      contentSelector: "div#content"
      titleSelectors:
        - "h1.bookname"
      cookie: "night=1"
      headers:
        Referer: "http://www.example.com/"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: 小说_<timestamp>.txt in the current directory)")
	cmd.Flags().StringP("markdown-report", "m", "",
		"Write a Markdown run report to the specified file path")

	// Pacing flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		fmt.Sprintf("Simultaneous sub-page fetches within one chapter (%d-%d)",
			config.MinConcurrency, config.MaxConcurrency))
	cmd.Flags().Duration("base-delay", config.DefaultBaseDelay,
		"Base pause between chapter fetches, before load adaptation and jitter")

	// HTTP flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes to read")
	cmd.Flags().String("user-agent", "",
		"Override the User-Agent header (default: browser-like)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Site-rules file path (default: .novel in current or home directory)")

	// History database flags
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Normalize()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.StartURL = args[0]

	var err error

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReportFile, err = cmd.Flags().GetString("markdown-report")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.BaseDelay, err = cmd.Flags().GetDuration("base-delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific rules from the site-rules file.
	// If the user explicitly specified a path, error when it is missing.
	// Without an explicit path, silently use empty rules if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteRules, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load site-rules file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	} else {
		cfg.SiteRules = &config.File{
			Sites: make(map[string]config.SiteRule),
		}
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	return cfg, nil
}

// runCrawl executes the harvest.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	startURL, err := url.Parse(cfg.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start URL %q: %w", cfg.StartURL, err)
	}
	rule := cfg.SiteRules.RuleFor(startURL.Host)

	session := model.NewSession(cfg.StartURL)

	f, err := buildFetcher(cfg, rule, session, logger)
	if err != nil {
		return err
	}

	extractor, err := buildExtractor(rule, logger)
	if err != nil {
		return err
	}

	resolverOpts := []extract.ResolverOption{extract.WithResolverLogger(logger)}
	if len(rule.PaginationSelectors) > 0 {
		resolverOpts = append(resolverOpts, extract.WithPaginationSelectors(rule.PaginationSelectors))
	}
	resolver := extract.NewResolver(resolverOpts...)

	pacer := pacing.New(session, cfg.BaseDelay)

	if cfg.SaveToDB {
		reportPreviousRun(ctx, cfg, logger)
	}

	out, err := sink.Open(cfg.OutputFile, sink.Header{
		StartURL:    cfg.StartURL,
		Concurrency: cfg.Concurrency,
		BaseDelay:   cfg.BaseDelay,
		StartedAt:   time.Now(),
	}, sink.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	fmt.Printf("Harvesting from %s\n", cfg.StartURL)
	fmt.Printf("Writing to %s\n\n", out.Path())

	w := walker.New(f, extractor, resolver, pacer, out, session,
		walker.WithLogger(logger),
		walker.WithConcurrency(cfg.Concurrency),
	)

	outcome, walkErr := w.Walk(ctx)

	summary := model.NewRunSummary(session, out.Path(), outcome)

	if err := out.WriteSummary(summary); err != nil {
		logger.Error("failed to write output summary", "error", err)
	}
	if err := out.Close(); err != nil {
		logger.Error("failed to close output file", "error", err)
	}

	if err := outputReports(cfg, summary); err != nil {
		logger.Error("report failed", "error", err)
	}

	if cfg.SaveToDB {
		// Save even cancelled runs so a restart can see where the
		// previous attempt stopped.
		if err := saveRunSummary(context.WithoutCancel(ctx), cfg, summary, logger); err != nil {
			logger.Error("failed to save run history", "error", err)
		}
	}

	switch outcome {
	case model.OutcomeAborted:
		return fmt.Errorf("harvest aborted: %w", walkErr)
	case model.OutcomeCancelled:
		return fmt.Errorf("harvest cancelled after %d chapter(s): %w", summary.Chapters, walkErr)
	default:
		return nil
	}
}

// buildFetcher creates the HTTP fetcher with the site rule applied.
func buildFetcher(cfg *config.Config, rule config.SiteRule, session *model.Session, logger *slog.Logger) (*fetcher.Fetcher, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	opts := []fetcher.Option{
		fetcher.WithLogger(logger),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, fetcher.WithUserAgent(cfg.UserAgent))
	}
	if len(rule.Headers) > 0 {
		opts = append(opts, fetcher.WithHeaders(rule.Headers))
	}
	if rule.Cookie != "" {
		opts = append(opts, fetcher.WithCookie(rule.Cookie))
	}

	return fetcher.New(client, session, opts...), nil
}

// buildExtractor creates the content extractor with the site rule applied.
func buildExtractor(rule config.SiteRule, logger *slog.Logger) (*extract.Extractor, error) {
	opts := []extract.ExtractorOption{extract.WithExtractorLogger(logger)}
	if rule.ContentSelector != "" {
		opts = append(opts, extract.WithContentSelector(rule.ContentSelector))
	}
	if len(rule.TitleSelectors) > 0 {
		opts = append(opts, extract.WithTitleSelectors(rule.TitleSelectors))
	}
	if len(rule.BoilerplatePatterns) > 0 {
		opts = append(opts, extract.WithBoilerplatePatterns(rule.BoilerplatePatterns))
	}

	extractor, err := extract.NewExtractor(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid extraction rules: %w", err)
	}
	return extractor, nil
}

// outputReports writes the terminal summary and the optional Markdown
// report file.
func outputReports(cfg *config.Config, summary *model.RunSummary) error {
	if _, err := report.NewSimpleWriter(os.Stdout).Write(summary); err != nil {
		return err
	}

	if cfg.MarkdownReportFile == "" {
		return nil
	}

	dir := filepath.Dir(cfg.MarkdownReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.MarkdownReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	_, err = report.NewMarkdownWriter(f).Write(summary)
	return err
}

// reportPreviousRun prints the last stored run for the same start URL,
// if any. A missing or unreadable database is not an error here; the
// harvest proceeds regardless.
func reportPreviousRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		logger.Debug("no readable history database", "dir", cfg.DBDir, "error", err)
		return
	}
	defer db.Close()

	record, err := db.LastRunForURL(ctx, cfg.StartURL)
	if err != nil {
		if !errors.Is(err, database.ErrRunNotFound) {
			logger.Debug("failed to load previous run", "error", err)
		}
		return
	}

	fmt.Printf("Previous run for this URL: %s, %d chapter(s) into %s\n\n",
		record.StartedAt.Local().Format(historyTimestampLayout),
		record.Chapters,
		record.OutputFile,
	)
}

// saveRunSummary stores the run summary in the history database.
func saveRunSummary(ctx context.Context, cfg *config.Config, summary *model.RunSummary, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, summary)
	if err != nil {
		return err
	}

	logger.Info("run saved to history database", "id", id, "dir", cfg.DBDir)
	return nil
}
