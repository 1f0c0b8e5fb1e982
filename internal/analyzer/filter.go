package analyzer

import (
	"log/slog"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// PathFilter answers exclusion queries for root-relative slash-separated
// paths against a compiled glob pattern list. The dialect is deliberately
// small: `**` matches any sequence of path segments, `*` matches any run
// of non-separator characters, `[...]` is a character class, everything
// else is literal. Patterns are
// anchored; a path is excluded when any pattern matches it in full.
type PathFilter struct {
	patterns []*regexp.Regexp
}

// NewPathFilter compiles the pattern list. A pattern that does not compile
// never excludes anything: a typo in one exclude must not silently drop
// the whole tree. The skip is logged once here rather than per file.
func NewPathFilter(patterns []string) *PathFilter {
	f := &PathFilter{}
	for _, p := range patterns {
		re, err := compileGlob(p)
		if err != nil {
			slog.Warn("Ignoring malformed exclude pattern", logfields.Pattern(p), logfields.Error(err))
			continue
		}
		f.patterns = append(f.patterns, re)
	}
	return f
}

// Excluded reports whether relPath matches any configured pattern.
func (f *PathFilter) Excluded(relPath string) bool {
	for _, re := range f.patterns {
		if re.MatchString(relPath) {
			return true
		}
	}
	return false
}

// compileGlob translates one glob pattern into an anchored regexp.
// `**` is rewritten before `*` so the single-star rule never sees the
// doubled form.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`\A`)
	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString(`(?:[^/]+/)*`)
			i += 3
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(`.*`)
			i += 2
		case pattern[i] == '*':
			b.WriteString(`[^/]*`)
			i++
		case pattern[i] == '[':
			// Character classes pass through untranslated. An unterminated
			// class reaches regexp.Compile as-is and fails there, which is
			// the malformed-pattern path callers rely on.
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				b.WriteString(pattern[i:])
				i = len(pattern)
				break
			}
			b.WriteString(pattern[i : i+end+1])
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			i++
		}
	}
	b.WriteString(`\z`)
	return regexp.Compile(b.String())
}
