// Package index defines the repository index model: the file and module
// records produced by analysis, the dependency table, and search over
// retained file contents. An Index is immutable once built and safe to
// share across goroutines.
package index

// FileRecord describes one analyzed source file. Path is the root-relative
// slash-separated path and acts as the unique key within an Index.
type FileRecord struct {
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Language     string   `json:"language"`
	Size         int      `json:"size"`
	Dependencies []string `json:"dependencies"`
	IsModule     bool     `json:"is_module"`
	Content      string   `json:"content,omitempty"`
}

// ModuleRecord is the projection of a FileRecord that was classified as a
// module root. Dependencies is a copy, not a view.
type ModuleRecord struct {
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Language     string   `json:"language"`
	Dependencies []string `json:"dependencies"`
}

// Stats summarizes an Index. Files and Modules always equal the lengths of
// the corresponding slices; Languages counts distinct language tags.
type Stats struct {
	Files     int `json:"files"`
	Languages int `json:"languages"`
	Modules   int `json:"modules"`
}

// Index is the complete result of analyzing one repository.
type Index struct {
	ID           string              `json:"id"`
	RepoPath     string              `json:"repo_path"`
	Files        []FileRecord        `json:"files"`
	Modules      []ModuleRecord      `json:"modules"`
	Languages    []string            `json:"languages"`
	Dependencies map[string][]string `json:"dependencies"`
	Entrypoints  []string            `json:"entrypoints"`
	Stats        Stats               `json:"stats"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}
