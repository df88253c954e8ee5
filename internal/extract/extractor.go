package extract

import (
	"bytes"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultContentSelector locates the chapter text container. It can be
// overridden per site via the rules file.
const DefaultContentSelector = "div.blurstxt"

// minParagraphRunes drops paragraphs that shrink below a useful length
// after cleaning; what remains at that size is navigation residue.
const minParagraphRunes = 6

// defaultTitleSelectors are tried in order; the first selector whose
// text survives cleaning wins.
var defaultTitleSelectors = []string{
	"h1", "h2", ".title", ".chapter-title", ".post-title", ".entry-title", "title",
}

// defaultBoilerplate matches the advertising and reader-reminder
// phrases the target sites inject into chapter paragraphs.
var defaultBoilerplate = []string{
	`本站.*?提醒您.*?`,
	`请收藏.*?`,
	`手机用户.*?`,
	`记住.*?网址.*?`,
	`最新章节.*?`,
	`无弹窗.*?`,
	`.*?首发.*?`,
	`.*?更新最快.*?`,
}

// Content is everything extracted from one document body.
type Content struct {
	// Title is the cleaned chapter title, empty if no selector matched.
	Title string

	// Paragraphs holds the cleaned text segments in document order.
	Paragraphs []string

	// NextURL is the absolute next-chapter URL, empty if the document
	// carries no rel=next link.
	NextURL string
}

// Extractor turns document bodies into Content.
type Extractor struct {
	contentSelector string
	titleSelectors  []string
	boilerplate     []*regexp.Regexp
	logger          *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor) error

// WithContentSelector overrides the chapter text container selector.
func WithContentSelector(selector string) ExtractorOption {
	return func(e *Extractor) error {
		if selector != "" {
			e.contentSelector = selector
		}
		return nil
	}
}

// WithTitleSelectors replaces the ordered title selector list.
func WithTitleSelectors(selectors []string) ExtractorOption {
	return func(e *Extractor) error {
		if len(selectors) > 0 {
			e.titleSelectors = selectors
		}
		return nil
	}
}

// WithBoilerplatePatterns appends extra boilerplate patterns to the
// built-in set. Patterns must be valid Go regular expressions.
func WithBoilerplatePatterns(patterns []string) ExtractorOption {
	return func(e *Extractor) error {
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return err
			}
			e.boilerplate = append(e.boilerplate, re)
		}
		return nil
	}
}

// WithExtractorLogger sets a custom logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) error {
		e.logger = logger
		return nil
	}
}

// NewExtractor creates an Extractor. It returns an error only for
// invalid boilerplate patterns supplied via options.
func NewExtractor(opts ...ExtractorOption) (*Extractor, error) {
	e := &Extractor{
		contentSelector: DefaultContentSelector,
		titleSelectors:  defaultTitleSelectors,
	}
	for _, p := range defaultBoilerplate {
		e.boilerplate = append(e.boilerplate, regexp.MustCompile(p))
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e, nil
}

// Extract parses body and returns title, paragraphs, and next pointer.
// A missing content container yields empty paragraphs but whatever
// title and next pointer the document still carries: a chapter page can
// be navigation-only. Parse failures degrade to an empty Content.
func (e *Extractor) Extract(body []byte, baseURL string) *Content {
	content := &Content{}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("document parse failed", "url", baseURL, "error", err)
		return content
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	content.Title = e.extractTitle(doc)
	content.NextURL = resolveHref(base, doc.Find("a[rel=next]").First().AttrOr("href", ""))

	container := doc.Find(e.contentSelector).First()
	if container.Length() == 0 {
		return content
	}

	container.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := e.cleanText(s.Text())
		if utf8.RuneCountInString(text) >= minParagraphRunes {
			content.Paragraphs = append(content.Paragraphs, text)
		}
	})

	return content
}

// extractTitle returns the first non-empty cleaned match over the
// ordered title selector list.
func (e *Extractor) extractTitle(doc *goquery.Document) string {
	for _, sel := range e.titleSelectors {
		if title := e.cleanText(doc.Find(sel).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

// cleanText collapses whitespace and strips boilerplate phrases.
func (e *Extractor) cleanText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	for _, re := range e.boilerplate {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// resolveHref resolves href against base and validates the result.
// Anchors and non-navigational schemes resolve to empty.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
