package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jianjiandamowang97/novel/internal/config"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl <start-url>" {
			t.Errorf("expected use 'crawl <start-url>', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("has concurrency flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("concurrency")
		if flag == nil {
			t.Fatal("expected concurrency flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != "2" {
			t.Errorf("expected default '2', got %q", flag.DefValue)
		}
	})

	t.Run("has base-delay flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("base-delay")
		if flag == nil {
			t.Fatal("expected base-delay flag")
		}
		if flag.DefValue != "1.5s" {
			t.Errorf("expected default '1.5s', got %q", flag.DefValue)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has no-db flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("no-db")
		if flag == nil {
			t.Fatal("expected no-db flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has markdown-report flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown-report")
		if flag == nil {
			t.Fatal("expected markdown-report flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})
}

// TestBuildConfig tests config construction from crawl command flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"http://www.example.com/book/1.html"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.StartURL != "http://www.example.com/book/1.html" {
			t.Errorf("unexpected start URL: %q", cfg.StartURL)
		}
		if cfg.Concurrency != config.DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", config.DefaultConcurrency, cfg.Concurrency)
		}
		if cfg.BaseDelay != config.DefaultBaseDelay {
			t.Errorf("expected default base delay %v, got %v", config.DefaultBaseDelay, cfg.BaseDelay)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to default to true")
		}
		if cfg.SiteRules == nil {
			t.Error("expected non-nil site rules")
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		err := cmd.ParseFlags([]string{
			"-o", "book.txt",
			"-n", "4",
			"--base-delay", "2s",
			"--timeout", "30s",
			"--user-agent", "test-agent",
			"--db-dir", "/tmp/novel-test-db",
			"--no-db",
		})
		if err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"http://www.example.com/book/1.html"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.OutputFile != "book.txt" {
			t.Errorf("expected output file 'book.txt', got %q", cfg.OutputFile)
		}
		if cfg.Concurrency != 4 {
			t.Errorf("expected concurrency 4, got %d", cfg.Concurrency)
		}
		if cfg.BaseDelay != 2*time.Second {
			t.Errorf("expected base delay 2s, got %v", cfg.BaseDelay)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Timeout)
		}
		if cfg.UserAgent != "test-agent" {
			t.Errorf("expected user agent 'test-agent', got %q", cfg.UserAgent)
		}
		if cfg.DBDir != "/tmp/novel-test-db" {
			t.Errorf("expected db dir '/tmp/novel-test-db', got %q", cfg.DBDir)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false with --no-db")
		}
	})

	t.Run("loads explicit site-rules file", func(t *testing.T) {
		t.Parallel()

		rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
		rules := `sites:
  www.example.com:
    contentSelector: "div#content"
    cookie: "night=1"
`
		if err := os.WriteFile(rulesPath, []byte(rules), 0600); err != nil {
			t.Fatalf("failed to write rules file: %v", err)
		}

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", rulesPath}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"http://www.example.com/book/1.html"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		rule := cfg.SiteRules.RuleFor("www.example.com")
		if rule.ContentSelector != "div#content" {
			t.Errorf("expected content selector 'div#content', got %q", rule.ContentSelector)
		}
		if rule.Cookie != "night=1" {
			t.Errorf("expected cookie 'night=1', got %q", rule.Cookie)
		}
	})

	t.Run("errors when explicit site-rules file is missing", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := cmd.ParseFlags([]string{"-c", missing}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildConfig(cmd, []string{"http://www.example.com/book/1.html"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}
