package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jianjiandamowang97/novel/internal/model"
)

func testHeader() Header {
	return Header{
		StartURL:    "http://example.com/novel/1.html",
		Concurrency: 2,
		BaseDelay:   1500 * time.Millisecond,
		StartedAt:   time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func TestOpenWritesHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "novel.txt")
	s, err := Open(path, testHeader())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	want := "小说爬取开始时间: 2026-01-02 15:04:05\n" +
		"起始章节: http://example.com/novel/1.html\n" +
		"并发限制: 2 | 基础延迟: 1.5s\n" +
		strings.Repeat("=", 100) + "\n\n"
	if string(data) != want {
		t.Errorf("header = %q, want %q", string(data), want)
	}
}

func TestWriteChapterRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "novel.txt")
	s, err := Open(path, testHeader())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	chapter := &model.Chapter{
		Title:      "第一章",
		Paragraphs: []string{"第一段内容。", "第二段内容。"},
	}
	if err := s.WriteChapter(chapter, 1); err != nil {
		t.Fatalf("WriteChapter() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	separator := strings.Repeat("=", 80)
	// 第一章 is three CJK runes, six display columns: 37 columns of
	// padding on the left, 37 on the right.
	titleLine := strings.Repeat(" ", 37) + "第一章" + strings.Repeat(" ", 37)
	wantRecord := separator + "\n" +
		titleLine + "\n" +
		separator + "\n" +
		"\n" +
		"    第一段内容。\n" +
		"\n" +
		"    第二段内容。\n" +
		"\n"
	if !strings.HasSuffix(string(data), wantRecord) {
		t.Errorf("file tail = %q, want suffix %q", string(data), wantRecord)
	}
}

func TestWriteChapterFallbackTitle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "novel.txt")
	s, err := Open(path, testHeader())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	chapter := &model.Chapter{Paragraphs: []string{"没有标题的一章。"}}
	if err := s.WriteChapter(chapter, 12); err != nil {
		t.Fatalf("WriteChapter() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "第12章") {
		t.Errorf("file should contain fallback title 第12章, got %q", string(data))
	}
}

func TestWriteChapterOrderPreserved(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "novel.txt")
	s, err := Open(path, testHeader())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	titles := []string{"第一章", "第二章", "第三章"}
	for i, title := range titles {
		chapter := &model.Chapter{Title: title, Paragraphs: []string{"正文段落，足够长。"}}
		if err := s.WriteChapter(chapter, i+1); err != nil {
			t.Fatalf("WriteChapter(%d) error = %v", i+1, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	text := string(data)
	last := -1
	for _, title := range titles {
		idx := strings.Index(text, title)
		if idx < 0 {
			t.Fatalf("title %q missing from output", title)
		}
		if idx < last {
			t.Errorf("title %q appears out of order", title)
		}
		last = idx
	}
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "novel.txt")
	s, err := Open(path, testHeader())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	started := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	summary := &model.RunSummary{
		StartURL:   "http://example.com/novel/1.html",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Chapters:   10,
		Words:      1234567,
		FailedURLs: []string{"http://example.com/novel/9.html"},
		Outcome:    model.OutcomeCompleted,
	}
	if err := s.WriteSummary(summary); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	text := string(data)
	for _, want := range []string{
		"爬取完成时间: 2026-01-02 15:02:00",
		"总章节数: 10",
		"总字数: 1,234,567",
		"总耗时: 120.0秒",
		"平均速度: 5.0章/分钟",
		"失败URL数: 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q in %q", want, text)
		}
	}
}

func TestWriteAfterClose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "novel.txt")
	s, err := Open(path, testHeader())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	chapter := &model.Chapter{Title: "第一章", Paragraphs: []string{"正文段落，足够长。"}}
	if err := s.WriteChapter(chapter, 1); err != ErrClosed {
		t.Errorf("WriteChapter() after Close = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}

func TestTruncateTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "short title untouched", title: "第一章", want: "第一章"},
		{name: "exactly sixty runes untouched", title: strings.Repeat("章", 60), want: strings.Repeat("章", 60)},
		{name: "long title truncated", title: strings.Repeat("章", 61), want: strings.Repeat("章", 57) + "..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateTitle(tt.title); got != tt.want {
				t.Errorf("truncateTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCenterLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "ascii", text: "Chapter 1"},
		{name: "cjk", text: "第一章"},
		{name: "mixed", text: "第1章 The Beginning"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := centerLine(tt.text, 80)
			if w := displayWidth(got); w != 80 {
				t.Errorf("displayWidth(centered) = %d, want 80", w)
			}
			left := len(got) - len(strings.TrimLeft(got, " "))
			right := len(got) - len(strings.TrimRight(got, " "))
			if diff := right - left; diff < 0 || diff > 1 {
				t.Errorf("padding left=%d right=%d, want near-equal with left bias", left, right)
			}
		})
	}
}

func TestCenterLineOverflow(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("章", 50)
	if got := centerLine(long, 80); got != long {
		t.Errorf("centerLine() padded an overflowing line: %q", got)
	}
}
