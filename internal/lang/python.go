package lang

import (
	"regexp"
	"strings"
)

var (
	pyImportRe = regexp.MustCompile(`^(?:import|from)\s+(\S+)`)
	pyFuncRe   = regexp.MustCompile(`def\s+(\w+)`)
)

func init() {
	Languages["py"] = &Language{
		Tag:              "py",
		Extensions:       []string{"py"},
		ExtractDeps:      pythonDeps,
		ExtractFunctions: pythonFunctions,
		IsModule:         pythonIsModule,
	}
}

// pythonDeps takes the first token after a line-leading import or from.
// "from pathlib import Path" yields "pathlib".
func pythonDeps(content string) []string {
	var deps []string
	for _, line := range strings.Split(content, "\n") {
		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			deps = append(deps, m[1])
		}
	}
	return deps
}

func pythonFunctions(content string) []string {
	var funcs []string
	for _, m := range pyFuncRe.FindAllStringSubmatch(content, -1) {
		funcs = append(funcs, m[1])
	}
	return funcs
}

func pythonIsModule(relPath string) bool {
	if baseName(relPath) == "__init__.py" {
		return true
	}
	parent := parentName(relPath)
	return parent == "src" || parent == "lib"
}
