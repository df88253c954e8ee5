package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTrimHandlerLongValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(10),
	))

	logger.Info("fetched", "body", strings.Repeat("x", 100))

	out := buf.String()
	if !strings.Contains(out, "xxxxxxxxxx... (90 more characters)") {
		t.Errorf("long value not trimmed: %s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 11)) {
		t.Errorf("trimmed output still carries the full value: %s", out)
	}
}

func TestTrimHandlerShortValueUntouched(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(10),
	))

	logger.Info("saved", "title", "第一章", "words", 1234)

	out := buf.String()
	if !strings.Contains(out, "第一章") {
		t.Errorf("short value modified: %s", out)
	}
	if !strings.Contains(out, "words=1234") {
		t.Errorf("non-string value modified: %s", out)
	}
}

func TestTrimHandlerCountsRunes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(3),
	))

	// The limit counts runes, not bytes: five CJK runes must be cut
	// after the third rune, not mid-character.
	logger.Info("fetched", "title", "第一章第二")

	if !strings.Contains(buf.String(), "第一章... (2 more characters)") {
		t.Errorf("CJK value not trimmed at rune boundary: %s", buf.String())
	}
}

func TestTrimHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(5),
	))

	logger.Info("request",
		slog.Group("http", slog.String("body", strings.Repeat("y", 20))))

	if !strings.Contains(buf.String(), "yyyyy... (15 more characters)") {
		t.Errorf("grouped value not trimmed: %s", buf.String())
	}
}

func TestTrimHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(
		slog.NewTextHandler(&buf, nil),
		WithMaxValueLen(5),
	))

	logger.With("snippet", strings.Repeat("z", 20)).Info("walk")

	if !strings.Contains(buf.String(), "zzzzz... (15 more characters)") {
		t.Errorf("With() attribute not trimmed: %s", buf.String())
	}
}

func TestTrimHandlerEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewTrimHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelDebug) {
		t.Error("Enabled(debug) = true, want delegation to the warn-level handler")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("Enabled(error) = false, want true")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	quiet := NewLogger(&buf, false)
	quiet.Debug("hidden")
	quiet.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("non-verbose logger emitted a debug record")
	}
	if !strings.Contains(out, "shown") {
		t.Error("non-verbose logger dropped an info record")
	}

	buf.Reset()
	NewLogger(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("verbose logger dropped a debug record")
	}
}

func TestNewJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewJSONLogger(&buf, false).Info("saved", "chapters", 3)

	out := buf.String()
	if !strings.Contains(out, `"msg":"saved"`) || !strings.Contains(out, `"chapters":3`) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}
