package sitemap

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/starford/sitemapd/internal/apperr"
)

// Matcher decides whether a URL is excluded by the configured ignore patterns.
// A pattern excludes a URL that equals it exactly or that it fully matches
// as a regular expression; "/tags" therefore does not exclude "/tags/x".
type Matcher struct {
	literals []string
	patterns []*regexp.Regexp
}

// NewMatcher compiles the ignore patterns.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{literals: append([]string(nil), patterns...)}
	for _, p := range patterns {
		re, err := CompilePattern(p)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// CompilePattern compiles p anchored at both ends.
func CompilePattern(p string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + p + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", apperr.ErrInvalidPattern, p, err)
	}
	return re, nil
}

// Match reports whether url is ignored.
func (m *Matcher) Match(url string) bool {
	if slices.Contains(m.literals, url) {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}
