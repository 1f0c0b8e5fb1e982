package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# repowiki configuration

[project]
name = "Unnamed Project"
repo-path = "."
include = ["**/*"]
exclude = ["**/node_modules/**", "**/dist/**", "**/.git/**"]

[analysis]
max-file-kb = 512
infer-entrypoints = []
# Cap on concurrently generated module pages.
module-concurrency = 50

[analysis.diagrams]
renderer = "mermaid" # mermaid|graphviz
types = ["module-graph", "call-graph", "sequence", "deployment"]

[summarize]
mode = "auto" # none|auto|local|remote
model = ""    # remote model name, default gemini-2.0-flash
temperature = 0.2
style = "concise" # concise|detailed

[site]
out-dir = "./out/wiki"

[slides]
flavor = "mdbook-reveal" # mdbook-reveal|marp
out-dir = "./out/slides"

[publish]
mode = "docs" # docs|gh-pages
branch = "gh-pages"

[security]
offline = true
pii-redaction = true

[server]
registry-size = 32

[store]
# SQLite build-event store; empty disables it.
path = ""

[events]
enabled = false
url = "nats://127.0.0.1:4222"
subject = "repowiki.builds"

[watch]
debounce = "2s"
# "0" disables the periodic rebuild.
rebuild-interval = "0"
# e.g. ":9090" to expose Prometheus metrics in watch mode.
metrics-listen = ""
`

// Init writes an example configuration file to path. An existing file is
// only overwritten with force.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
