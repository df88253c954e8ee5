package config

// SiteRule holds extraction rules for a single host. Novel sites vary
// in markup; a rule file adapts the harvester to a site without code
// changes.
type SiteRule struct {
	// ContentSelector overrides the CSS selector locating the chapter
	// text container.
	ContentSelector string `yaml:"contentSelector,omitempty"`

	// TitleSelectors overrides the ordered list of CSS selectors tried
	// for the chapter title.
	TitleSelectors []string `yaml:"titleSelectors,omitempty"`

	// PaginationSelectors are extra CSS selectors for sub-page links,
	// tried in addition to the built-in set.
	PaginationSelectors []string `yaml:"paginationSelectors,omitempty"`

	// BoilerplatePatterns are extra regular expressions stripped from
	// paragraph text, in addition to the built-in set.
	BoilerplatePatterns []string `yaml:"boilerplatePatterns,omitempty"`

	// Headers are custom HTTP headers to include in requests to this
	// site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is an HTTP cookie to use when fetching from this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`
}

// File represents the structure of the .novel site-rules file.
type File struct {
	// Sites maps host names to their site-specific rules.
	// Keys are bare hosts without a scheme (e.g. "www.example.com").
	Sites map[string]SiteRule `yaml:"sites,omitempty"`

	// Defaults contains rules applied to every host unless overridden
	// in the site-specific rule.
	Defaults SiteRule `yaml:"defaults,omitempty"`
}

// RuleFor returns the rules for a specific host, merging the
// site-specific rule over the defaults.
func (cf *File) RuleFor(host string) SiteRule {
	result := cf.Defaults

	if rule, ok := cf.Sites[host]; ok {
		if rule.ContentSelector != "" {
			result.ContentSelector = rule.ContentSelector
		}
		if len(rule.TitleSelectors) > 0 {
			result.TitleSelectors = rule.TitleSelectors
		}
		if len(rule.PaginationSelectors) > 0 {
			result.PaginationSelectors = rule.PaginationSelectors
		}
		if len(rule.BoilerplatePatterns) > 0 {
			result.BoilerplatePatterns = rule.BoilerplatePatterns
		}
		if rule.Cookie != "" {
			result.Cookie = rule.Cookie
		}
		if len(rule.Headers) > 0 {
			// Merge into a fresh map; result.Headers still aliases the
			// defaults map here and must not be written through.
			merged := make(map[string]string, len(result.Headers)+len(rule.Headers))
			for k, v := range result.Headers {
				merged[k] = v
			}
			for k, v := range rule.Headers {
				merged[k] = v
			}
			result.Headers = merged
		}
	}

	return result
}
