// Package lang provides the language capability registry mapping file
// extensions to per-language analysis strategies: dependency extraction,
// function extraction, and module classification. The strategies are
// deliberate text heuristics (regex and line scans), not parsers; a real
// parser can replace a strategy per language without touching callers.
package lang

import (
	"path"
	"sync"
)

// Language holds the analysis capabilities for one supported language.
// All capability funcs are pure and safe to share across goroutines.
type Language struct {
	// Tag is the short identifier recorded in the index ("ts", "go", ...).
	Tag string
	// Extensions lists the file extensions (without dot) handled by this
	// language.
	Extensions []string

	// ExtractDeps returns raw dependency tokens found in content, in scan
	// order, duplicates preserved. Tokens are not resolved to packages.
	ExtractDeps func(content string) []string

	// ExtractFunctions returns function names found in content.
	ExtractFunctions func(content string) []string

	// IsModule reports whether the file at relPath (root-relative, slash
	// separated) is a module root for this language.
	IsModule func(relPath string) bool
}

// Languages maps language tags to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var (
	extensionMap  map[string]*Language
	extensionOnce sync.Once
)

func getExtensionMap() map[string]*Language {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]*Language)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language handling a file extension (without
// leading dot), or nil if the extension is unsupported.
func ForExtension(ext string) *Language {
	return getExtensionMap()[ext]
}

// ForTag returns the language registered under tag, or nil.
func ForTag(tag string) *Language {
	return Languages[tag]
}

func baseName(relPath string) string {
	return path.Base(relPath)
}

func parentName(relPath string) string {
	return path.Base(path.Dir(relPath))
}
