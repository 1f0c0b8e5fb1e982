package lang

func init() {
	Languages["ts"] = &Language{
		Tag:              "ts",
		Extensions:       []string{"ts", "tsx"},
		ExtractDeps:      scriptDeps,
		ExtractFunctions: scriptFunctions,
		IsModule:         scriptIsModule,
	}
}
