package lang

import (
	"regexp"
)

// Shared heuristics for the ECMAScript family. TypeScript and JavaScript
// register separately but analyze identically.
var (
	importFromRe = regexp.MustCompile(`(?:import|export).*from\s+['"]([^'"]+)['"]`)
	requireRe    = regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]`)

	scriptFuncRe = regexp.MustCompile(`(?:export\s+)?(?:async\s+)?function\s+(\w+)`)
	arrowFuncRe  = regexp.MustCompile(`(?:const|let)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>`)
)

// scriptDeps collects import/export-from targets first, then require()
// targets, each in document order.
func scriptDeps(content string) []string {
	var deps []string
	for _, m := range importFromRe.FindAllStringSubmatch(content, -1) {
		deps = append(deps, m[1])
	}
	for _, m := range requireRe.FindAllStringSubmatch(content, -1) {
		deps = append(deps, m[1])
	}
	return deps
}

func scriptFunctions(content string) []string {
	var funcs []string
	for _, m := range scriptFuncRe.FindAllStringSubmatch(content, -1) {
		funcs = append(funcs, m[1])
	}
	for _, m := range arrowFuncRe.FindAllStringSubmatch(content, -1) {
		funcs = append(funcs, m[1])
	}
	return funcs
}

func scriptIsModule(relPath string) bool {
	switch baseName(relPath) {
	case "index.ts", "index.js", "index.tsx", "index.jsx":
		return true
	}
	parent := parentName(relPath)
	return parent == "src" || parent == "lib"
}
