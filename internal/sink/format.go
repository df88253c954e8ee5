package sink

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"

	"github.com/jianjiandamowang97/novel/internal/model"
)

const (
	// recordWidth is the column width of chapter separator and title
	// lines.
	recordWidth = 80

	// frameWidth is the column width of the header and summary frames.
	frameWidth = 100

	// maxTitleRunes caps the displayed title length. Longer titles are
	// cut to truncatedTitleRunes runes plus an ellipsis.
	maxTitleRunes       = 60
	truncatedTitleRunes = 57
)

// formatChapter renders one chapter record. The record ends with a
// blank line but no trailing newline, so the next record's separator
// starts on a fresh line with exactly one blank line between records.
func formatChapter(chapter *model.Chapter, position int) string {
	separator := strings.Repeat("=", recordWidth)

	title := chapter.Title
	if title == "" {
		title = fmt.Sprintf("第%d章", position)
	}

	lines := []string{
		separator,
		centerLine(truncateTitle(title), recordWidth),
		separator,
		"",
	}

	for i, paragraph := range chapter.Paragraphs {
		lines = append(lines, "    "+paragraph)
		if i < len(chapter.Paragraphs)-1 {
			lines = append(lines, "")
		}
	}

	lines = append(lines, "", "")
	return strings.Join(lines, "\n")
}

// truncateTitle cuts titles longer than maxTitleRunes down to
// truncatedTitleRunes runes plus an ellipsis.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:truncatedTitleRunes]) + "..."
}

// centerLine pads text with spaces to total display columns, biased
// left when the padding is odd. CJK runes occupy two columns, so the
// display width is what gets centered, not the rune count.
func centerLine(text string, total int) string {
	w := displayWidth(text)
	if w >= total {
		return text
	}
	left := (total - w) / 2
	right := total - w - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

// displayWidth returns the terminal column width of text. Wide and
// fullwidth East Asian runes count as two columns.
func displayWidth(text string) int {
	var w int
	for _, r := range text {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}
