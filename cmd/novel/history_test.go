package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jianjiandamowang97/novel/internal/database"
	"github.com/jianjiandamowang97/novel/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [start-url]" {
			t.Errorf("expected use 'history [start-url]', got %q", cmd.Use)
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
		if flag.DefValue != "10" {
			t.Errorf("expected default '10', got %q", flag.DefValue)
		}
	})

	t.Run("has db-dir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag == nil {
			t.Fatal("expected db-dir flag")
		}
	})
}

// seedHistoryDB stores the given summaries in a fresh database under dir.
func seedHistoryDB(t *testing.T, dir string, summaries ...*model.RunSummary) {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	for _, s := range summaries {
		if _, err := db.SaveRun(context.Background(), s); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}
}

// TestRunHistoryCmd tests the history command execution.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("errors without a database", func(t *testing.T) {
		t.Parallel()

		cmd := NewHistoryCmd()
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error when no database exists")
		}
	})

	t.Run("lists recent runs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		now := time.Now()
		seedHistoryDB(t, dir,
			&model.RunSummary{
				StartURL:   "http://www.example.com/book/1.html",
				OutputFile: "first.txt",
				StartedAt:  now.Add(-2 * time.Hour),
				FinishedAt: now.Add(-110 * time.Minute),
				Chapters:   12,
				Words:      30000,
				Outcome:    model.OutcomeCompleted,
			},
			&model.RunSummary{
				StartURL:   "http://www.example.com/book/2.html",
				OutputFile: "second.txt",
				StartedAt:  now.Add(-time.Hour),
				FinishedAt: now.Add(-50 * time.Minute),
				Chapters:   3,
				Words:      7000,
				Outcome:    model.OutcomeAborted,
			},
		)

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Recent runs (2):") {
			t.Errorf("expected run count header, got: %s", output)
		}
		if !strings.Contains(output, "http://www.example.com/book/1.html") {
			t.Errorf("expected first start URL in output, got: %s", output)
		}
		if !strings.Contains(output, "aborted") {
			t.Errorf("expected aborted outcome in output, got: %s", output)
		}
	})

	t.Run("respects limit flag", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		now := time.Now()
		seedHistoryDB(t, dir,
			&model.RunSummary{
				StartURL:   "http://www.example.com/book/1.html",
				OutputFile: "a.txt",
				StartedAt:  now.Add(-2 * time.Hour),
				FinishedAt: now.Add(-time.Hour),
				Outcome:    model.OutcomeCompleted,
			},
			&model.RunSummary{
				StartURL:   "http://www.example.com/book/2.html",
				OutputFile: "b.txt",
				StartedAt:  now.Add(-time.Hour),
				FinishedAt: now,
				Outcome:    model.OutcomeCompleted,
			},
		)

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--limit", "1"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Recent runs (1):") {
			t.Errorf("expected one run listed, got: %s", output)
		}
		// The newer run wins under the limit.
		if !strings.Contains(output, "http://www.example.com/book/2.html") {
			t.Errorf("expected newest run in output, got: %s", output)
		}
	})

	t.Run("shows last run for a start URL", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		now := time.Now()
		seedHistoryDB(t, dir, &model.RunSummary{
			StartURL:   "http://www.example.com/book/1.html",
			OutputFile: "book.txt",
			StartedAt:  now.Add(-time.Hour),
			FinishedAt: now,
			Chapters:   42,
			Words:      99000,
			FailedURLs: []string{"http://www.example.com/book/7.html"},
			Outcome:    model.OutcomeCompleted,
		})

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "http://www.example.com/book/1.html"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Last run for http://www.example.com/book/1.html") {
			t.Errorf("expected last-run header, got: %s", output)
		}
		if !strings.Contains(output, "Chapters:    42") {
			t.Errorf("expected chapter count, got: %s", output)
		}
		if !strings.Contains(output, "http://www.example.com/book/7.html") {
			t.Errorf("expected failed URL in output, got: %s", output)
		}
	})

	t.Run("errors for unknown start URL", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		now := time.Now()
		seedHistoryDB(t, dir, &model.RunSummary{
			StartURL:   "http://www.example.com/book/1.html",
			OutputFile: "book.txt",
			StartedAt:  now.Add(-time.Hour),
			FinishedAt: now,
			Outcome:    model.OutcomeCompleted,
		})

		cmd := NewHistoryCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", dir, "http://www.example.com/other.html"})

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected error for unknown start URL")
		}
		if !strings.Contains(err.Error(), "no stored runs") {
			t.Errorf("expected 'no stored runs' error, got: %v", err)
		}
	})
}
