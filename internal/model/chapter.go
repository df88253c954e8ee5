package model

import "unicode/utf8"

// Chapter is one assembled unit of the chain: the content of a single
// chapter page merged with the content of all of its sub-pages, in
// reading order. A Chapter is immutable once assembled; the walker
// persists it and discards it.
type Chapter struct {
	// URL is the absolute URL the chapter was fetched from.
	URL string

	// Title is the extracted chapter title. Empty when no title
	// selector matched.
	Title string

	// Paragraphs holds the cleaned text segments in source document
	// order. Sub-page paragraphs follow the main page's paragraphs,
	// ordered by sub-page sequence index.
	Paragraphs []string

	// NextURL is the absolute URL of the next chapter in the chain.
	// Empty when the chapter is the last one.
	NextURL string
}

// Words returns the total rune count of all paragraphs.
// Rune count rather than byte count so that CJK text is counted
// one character per word-unit, matching how chapter lengths are
// conventionally reported for Chinese novels.
func (c *Chapter) Words() int {
	total := 0
	for _, p := range c.Paragraphs {
		total += utf8.RuneCountInString(p)
	}
	return total
}

// Empty reports whether the chapter carries no extractable text.
// Empty chapters are not persisted and count against the walker's
// consecutive failure budget.
func (c *Chapter) Empty() bool {
	return len(c.Paragraphs) == 0
}

// SubPage is one pagination page belonging to a chapter. It is owned by
// the in-flight fetch batch for that chapter and discarded after its
// paragraphs are merged.
type SubPage struct {
	// Index is the sub-page's position in the resolved pagination
	// sequence, 0-based. Merging is strictly by ascending Index no
	// matter in which order the fetches complete.
	Index int

	// URL is the absolute sub-page URL.
	URL string

	// Paragraphs holds the cleaned text segments of the sub-page.
	Paragraphs []string
}
