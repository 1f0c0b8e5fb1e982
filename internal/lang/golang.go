package lang

import (
	"regexp"
	"strings"
)

var (
	goImportRe   = regexp.MustCompile(`import\s+(?:\(([^)]+)\)|["']([^"']+)["'])`)
	goQuotedRe   = regexp.MustCompile(`["']([^"']+)["']`)
	goFuncNameRe = regexp.MustCompile(`func\s+(\w+)`)
)

func init() {
	Languages["go"] = &Language{
		Tag:              "go",
		Extensions:       []string{"go"},
		ExtractDeps:      goDeps,
		ExtractFunctions: goFunctions,
		IsModule:         goIsModule,
	}
}

// goDeps handles both single-line imports and parenthesized import blocks,
// taking the first quoted token of each block line.
func goDeps(content string) []string {
	var deps []string
	for _, m := range goImportRe.FindAllStringSubmatch(content, -1) {
		if m[1] != "" {
			for _, line := range strings.Split(m[1], "\n") {
				if q := goQuotedRe.FindStringSubmatch(line); q != nil {
					deps = append(deps, q[1])
				}
			}
			continue
		}
		if m[2] != "" {
			deps = append(deps, m[2])
		}
	}
	return deps
}

// goFunctions misses method declarations: the name pattern does not step
// over a receiver list. Accepted, the call graph is a sketch.
func goFunctions(content string) []string {
	var funcs []string
	for _, m := range goFuncNameRe.FindAllStringSubmatch(content, -1) {
		funcs = append(funcs, m[1])
	}
	return funcs
}

func goIsModule(relPath string) bool {
	parent := parentName(relPath)
	return parent == "cmd" || parent == "pkg"
}
