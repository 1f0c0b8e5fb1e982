package analyzer

import (
	"io/fs"
	"os"
	"path/filepath"
)

// literalEntrypoints are the conventional entry file names probed at the
// repository root.
var literalEntrypoints = []string{
	"main.ts",
	"main.js",
	"index.ts",
	"index.js",
	"main.py",
	"__main__.py",
	"main.go",
	"main.rs",
}

// inferEntrypoints returns candidate entry files as root-relative slash
// paths: configured hints that exist, the literal candidates that exist,
// and a tree scan for main.ts/index.ts basenames.
//
// The scan patterns are declared as cmd/**/main.go and apps/**/{main,index}.ts
// but the walk matches basenames tree-wide without enforcing the directory
// prefixes. That gap is long-standing observed behavior; downstream output
// depends on it, so it is kept rather than narrowed. Results are
// de-duplicated, first occurrence wins.
func inferEntrypoints(root string, hints []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(rel string) {
		rel = filepath.ToSlash(rel)
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
	}

	for _, h := range hints {
		if _, err := os.Stat(filepath.Join(root, h)); err == nil {
			add(h)
		}
	}
	for _, cand := range literalEntrypoints {
		if _, err := os.Stat(filepath.Join(root, cand)); err == nil {
			add(cand)
		}
	}

	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch d.Name() {
		case "main.ts", "index.ts":
			if rel, relErr := filepath.Rel(root, p); relErr == nil {
				add(rel)
			}
		}
		return nil
	})

	return out
}
