package lang

import (
	"regexp"
	"strings"
)

var (
	rustUseRe  = regexp.MustCompile(`use\s+([^;]+);`)
	rustFuncRe = regexp.MustCompile(`fn\s+(\w+)`)
)

func init() {
	Languages["rs"] = &Language{
		Tag:              "rs",
		Extensions:       []string{"rs"},
		ExtractDeps:      rustDeps,
		ExtractFunctions: rustFunctions,
		IsModule:         rustIsModule,
	}
}

// rustDeps keeps only use statements with a path separator or brace group,
// which filters bare re-exports like "use baz;". The first path segment is
// the dependency token: "use foo::bar::Baz;" yields "foo".
func rustDeps(content string) []string {
	var deps []string
	for _, m := range rustUseRe.FindAllStringSubmatch(content, -1) {
		p := m[1]
		if !strings.Contains(p, "::") && !strings.Contains(p, "{") {
			continue
		}
		deps = append(deps, strings.TrimSpace(strings.Split(p, "::")[0]))
	}
	return deps
}

func rustFunctions(content string) []string {
	var funcs []string
	for _, m := range rustFuncRe.FindAllStringSubmatch(content, -1) {
		funcs = append(funcs, m[1])
	}
	return funcs
}

func rustIsModule(relPath string) bool {
	return baseName(relPath) == "lib.rs" || parentName(relPath) == "src"
}
