package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jianjiandamowang97/novel/internal/config"
	"github.com/jianjiandamowang97/novel/internal/database"
	"github.com/spf13/cobra"
)

// historyTimestampLayout formats run timestamps for display.
const historyTimestampLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command lists harvest runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [start-url]",
		Short: "Show past harvest runs",
		Long: `History lists harvest runs stored in the local database.

Without arguments it shows the most recent runs across all novels. With a
start URL it shows the last run for that URL, including the chapter URLs
that permanently failed.

Examples:
  # Show the 10 most recent runs
  novel history

  # Show more runs
  novel history --limit 25

  # Show the last run for a specific novel
  novel history http://www.example.com/book/1234.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 10, "Maximum number of runs to list")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// The history command only reads; a missing database means no runs
	// were ever recorded.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no harvest history found (run 'novel crawl' first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if len(args) == 1 {
		return showLastRun(ctx, cmd, db, args[0])
	}
	return listRecentRuns(ctx, cmd, db, limit)
}

// listRecentRuns lists the most recent stored runs across all novels.
func listRecentRuns(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, limit int) error {
	records, err := db.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No stored runs found.")
		fmt.Fprintln(out, "\nUse 'novel crawl <start-url>' to harvest a novel.")
		return nil
	}

	fmt.Fprintf(out, "Recent runs (%d):\n\n", len(records))
	fmt.Fprintf(out, "  %-6s  %-19s  %-9s  %8s  %10s  %s\n",
		"ID", "Started", "Outcome", "Chapters", "Words", "Start URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, r := range records {
		fmt.Fprintf(out, "  %-6d  %-19s  %-9s  %8d  %10d  %s\n",
			r.ID,
			r.StartedAt.Local().Format(historyTimestampLayout),
			r.Outcome,
			r.Chapters,
			r.Words,
			r.StartURL,
		)
	}

	fmt.Fprintln(out, "\nUse 'novel history <start-url>' to see the last run for one novel.")
	return nil
}

// showLastRun shows the most recent stored run for a specific start URL.
func showLastRun(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, startURL string) error {
	record, err := db.LastRunForURL(ctx, startURL)
	if errors.Is(err, database.ErrRunNotFound) {
		return fmt.Errorf("no stored runs for %s", startURL)
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Last run for %s\n\n", record.StartURL)
	fmt.Fprintf(out, "  Run ID:      %d\n", record.ID)
	fmt.Fprintf(out, "  Output File: %s\n", record.OutputFile)
	fmt.Fprintf(out, "  Started:     %s\n", record.StartedAt.Local().Format(historyTimestampLayout))
	fmt.Fprintf(out, "  Finished:    %s\n", record.FinishedAt.Local().Format(historyTimestampLayout))
	fmt.Fprintf(out, "  Elapsed:     %s\n", record.FinishedAt.Sub(record.StartedAt).Round(time.Second))
	fmt.Fprintf(out, "  Outcome:     %s\n", record.Outcome)
	fmt.Fprintf(out, "  Chapters:    %d\n", record.Chapters)
	fmt.Fprintf(out, "  Words:       %d\n", record.Words)

	if len(record.FailedURLs) > 0 {
		fmt.Fprintf(out, "\nFailed URLs (%d):\n", len(record.FailedURLs))
		for _, u := range record.FailedURLs {
			fmt.Fprintf(out, "  * %s\n", u)
		}
	}

	return nil
}
