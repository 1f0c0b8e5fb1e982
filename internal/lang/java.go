package lang

// Java files are indexed but carry no extraction heuristics yet: imports
// and functions come back empty and no file is a module root.
func init() {
	Languages["java"] = &Language{
		Tag:              "java",
		Extensions:       []string{"java"},
		ExtractDeps:      func(string) []string { return nil },
		ExtractFunctions: func(string) []string { return nil },
		IsModule:         func(string) bool { return false },
	}
}
