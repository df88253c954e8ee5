package extract

import (
	"bytes"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// paginationSelectors cover the pagination markup conventions of
// WordPress-style novel sites. The union of all matches feeds the
// candidate list.
var paginationSelectors = []string{
	"a.post-page-numbers",
	`a[class*="page"]`,
	`a[href*="page"]`,
	`a[href*="/p"]`,
	".pagination a",
	".page-numbers a",
	".wp-pagenavi a",
	".pagenavi a",
}

// navLabels identify prev/next/first/last navigation anchors, which
// point at neighbouring chapters rather than sub-pages of this one.
var navLabels = []string{"prev", "next", "上一", "下一", "首页", "末页"}

// pathPagePatterns extract a page number from the URL path, tried in
// order: /page/N/, /N.html, /pN.html.
var pathPagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/page/(\d+)/?`),
	regexp.MustCompile(`/(\d+)\.html?`),
	regexp.MustCompile(`/p(\d+)\.html?`),
}

// pageQueryParams are the query keys consulted when the path carries no
// page number.
var pageQueryParams = []string{"page", "p", "paged"}

var fragmentDigits = regexp.MustCompile(`(\d+)`)

// Resolver finds the sub-page URLs of a paginated chapter.
type Resolver struct {
	selectors []string
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPaginationSelectors appends extra selectors to the built-in set.
func WithPaginationSelectors(selectors []string) ResolverOption {
	return func(r *Resolver) {
		r.selectors = append(r.selectors, selectors...)
	}
}

// WithResolverLogger sets a custom logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		selectors: append([]string{}, paginationSelectors...),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// ResolvePages returns the absolute sub-page URLs found in body,
// deduplicated and ordered by extracted page number. The first page
// itself (pageURL) is excluded; an unpaginated chapter yields nil.
// Parse failures degrade to nil.
func (r *Resolver) ResolvePages(body []byte, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		r.logger.Warn("document parse failed", "url", pageURL, "error", err)
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var candidates []string
	for _, sel := range r.selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if isNavLabel(s.Text()) {
				return
			}
			resolved := resolveHref(base, s.AttrOr("href", ""))
			if resolved == "" || resolved == pageURL {
				return
			}
			candidates = append(candidates, resolved)
		})
	}

	pages := dedupe(candidates)
	sortByPageNumber(pages)
	return pages
}

// isNavLabel reports whether an anchor label names chapter navigation
// rather than a sub-page.
func isNavLabel(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, nav := range navLabels {
		if strings.Contains(label, nav) {
			return true
		}
	}
	return false
}

// dedupe removes duplicates keeping the first occurrence of each URL.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// sortByPageNumber orders URLs by extracted page number. The sort is
// stable so URLs without a recognisable number keep their discovery
// order.
func sortByPageNumber(urls []string) {
	sort.SliceStable(urls, func(i, j int) bool {
		return pageNumber(urls[i]) < pageNumber(urls[j])
	})
}

// pageNumber extracts the page number from a sub-page URL. The path is
// consulted first, then the page query parameters, then any digits in
// the fragment. URLs without a recognisable number map to 0.
func pageNumber(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}

	for _, re := range pathPagePatterns {
		if m := re.FindStringSubmatch(u.Path); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}

	query := u.Query()
	for _, key := range pageQueryParams {
		if v := query.Get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}

	if m := fragmentDigits.FindStringSubmatch(u.Fragment); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}

	return 0
}
