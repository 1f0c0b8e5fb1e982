package lang

func init() {
	Languages["js"] = &Language{
		Tag:              "js",
		Extensions:       []string{"js", "jsx", "mjs", "cjs"},
		ExtractDeps:      scriptDeps,
		ExtractFunctions: scriptFunctions,
		IsModule:         scriptIsModule,
	}
}
