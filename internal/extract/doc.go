// Package extract pulls chapter text, titles, next-chapter pointers,
// and pagination links out of fetched HTML documents. Selection is
// rule-driven: ordered lists of CSS selectors are tried until one
// matches, which tolerates the varying markup conventions of novel
// sites. All extraction is best-effort and degrades to empty results
// rather than failing the surrounding chapter.
package extract
