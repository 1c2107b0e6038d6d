package capture

import (
	"regexp"
	"strings"

	"clipstack/internal/clip"
)

// IgnoreMatcher checks captured text against a set of regular expressions.
type IgnoreMatcher struct {
	patterns []*regexp.Regexp
}

// NewIgnoreMatcher compiles rawPatterns. Blank lines and lines starting with
// '#' are skipped. Patterns that fail to compile are logged and skipped.
func NewIgnoreMatcher(rawPatterns []string, logger clip.Logger) *IgnoreMatcher {
	var patterns []*regexp.Regexp
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			logger.Warn("skipping bad ignore pattern", "pattern", raw, "error", err)
			continue
		}
		patterns = append(patterns, re)
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Len returns the number of usable patterns.
func (m *IgnoreMatcher) Len() int {
	return len(m.patterns)
}

// Match reports whether text matches any pattern.
func (m *IgnoreMatcher) Match(text string) bool {
	for _, re := range m.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
