package analyzer

import "testing"

func TestPathFilterExcluded(t *testing.T) {
	cases := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"double star dirs", []string{"**/node_modules/**"}, "a/b/node_modules/x/y.js", true},
		{"double star at root", []string{"**/node_modules/**"}, "node_modules/y.js", true},
		{"no match", []string{"**/node_modules/**"}, "src/app.ts", false},
		{"single star stays in segment", []string{"src/*.ts"}, "src/app.ts", true},
		{"single star no cross segment", []string{"src/*.ts"}, "src/sub/app.ts", false},
		{"anchored full match", []string{"dist"}, "dist/bundle.js", false},
		{"dist subtree", []string{"**/dist/**", "dist/**"}, "dist/bundle.js", true},
		{"literal dot not wildcard", []string{"a.b"}, "axb", false},
		{"character class", []string{"file[0-9].go"}, "file7.go", true},
		{"any match wins", []string{"never/**", "**/*.log"}, "deep/run.log", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewPathFilter(tc.patterns)
			if got := f.Excluded(tc.path); got != tc.want {
				t.Errorf("Excluded(%q) with %v = %v, want %v", tc.path, tc.patterns, got, tc.want)
			}
		})
	}
}

func TestPathFilterMalformedPatternNeverExcludes(t *testing.T) {
	// An unterminated character class fails to compile; the policy is
	// that a broken pattern must never exclude anything.
	f := NewPathFilter([]string{"[unclosed"})
	if f.Excluded("[unclosed") {
		t.Error("malformed pattern excluded its own literal text")
	}
	if f.Excluded("anything/else.go") {
		t.Error("malformed pattern excluded an unrelated path")
	}

	// A good pattern alongside a broken one still works.
	f = NewPathFilter([]string{"[unclosed", "**/*.tmp"})
	if !f.Excluded("a/b.tmp") {
		t.Error("valid pattern stopped matching in the presence of a malformed one")
	}
}
