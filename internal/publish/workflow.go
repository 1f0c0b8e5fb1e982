package publish

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// Workflow models the subset of the GitHub Actions schema the pages
// workflow needs.
type Workflow struct {
	Name        string            `yaml:"name"`
	On          WorkflowTrigger   `yaml:"on"`
	Permissions map[string]string `yaml:"permissions"`
	Jobs        map[string]Job    `yaml:"jobs"`
}

type WorkflowTrigger struct {
	Push PushTrigger `yaml:"push"`
}

type PushTrigger struct {
	Branches []string `yaml:"branches"`
}

type Job struct {
	RunsOn string `yaml:"runs-on"`
	Steps  []Step `yaml:"steps"`
}

type Step struct {
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Run  string            `yaml:"run,omitempty"`
}

// PagesWorkflow is the workflow written by WriteActionsWorkflow: build the
// binary, run the full pipeline and deploy the rendered book with the
// actions-gh-pages action.
func PagesWorkflow() Workflow {
	return Workflow{
		Name: "Deploy Pages",
		On: WorkflowTrigger{
			Push: PushTrigger{Branches: []string{"main"}},
		},
		Permissions: map[string]string{"contents": "write"},
		Jobs: map[string]Job{
			"build": {
				RunsOn: "ubuntu-latest",
				Steps: []Step{
					{Uses: "actions/checkout@v4"},
					{Uses: "actions/setup-go@v5", With: map[string]string{"go-version": "stable"}},
					{Run: "go build -o repowiki ./cmd/repowiki"},
					{Run: "./repowiki build-all"},
					{Uses: "peaceiris/actions-gh-pages@v4", With: map[string]string{
						"github_token":   "${{ secrets.GITHUB_TOKEN }}",
						"publish_branch": "gh-pages",
						"publish_dir":    "out/wiki/book",
					}},
				},
			},
		},
	}
}

// WriteActionsWorkflow writes .github/workflows/pages.yml under repoRoot
// and returns the written path.
func (p *Publisher) WriteActionsWorkflow(repoRoot string) (string, error) {
	dir := filepath.Join(repoRoot, ".github", "workflows")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workflows dir: %w", err)
	}

	data, err := yaml.Marshal(PagesWorkflow())
	if err != nil {
		return "", fmt.Errorf("marshal workflow: %w", err)
	}

	path := filepath.Join(dir, "pages.yml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write workflow: %w", err)
	}
	slog.Info("Actions workflow written", logfields.Path(path))
	return path, nil
}
