// Package diagram renders index-derived diagrams as mermaid or graphviz
// DSL text. The graphs are sketches: module edges come from name/token
// containment, the call graph lists function names without call edges, and
// the sequence and deployment diagrams are generic templates. Rendering the
// DSL to images is left to the site toolchain.
package diagram

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/lang"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// Diagram types.
const (
	TypeModuleGraph = "module-graph"
	TypeCallGraph   = "call-graph"
	TypeSequence    = "sequence"
	TypeDeployment  = "deployment"
)

// Renderers.
const (
	RendererMermaid  = "mermaid"
	RendererGraphviz = "graphviz"
)

var (
	// ErrUnknownType is returned for diagram types outside the fixed set.
	ErrUnknownType = errors.New("unknown diagram type")
	// ErrUnknownRenderer is returned for renderers other than mermaid and
	// graphviz.
	ErrUnknownRenderer = errors.New("unknown diagram renderer")
	// ErrRendererUnsupported is returned when the selected renderer cannot
	// draw the requested type (sequence and deployment are mermaid-only).
	ErrRendererUnsupported = errors.New("diagram type not supported by renderer")
)

// Diagram is one rendered diagram.
type Diagram struct {
	Type    string `json:"diagram_type"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// Diagrammer renders diagrams with a fixed renderer choice. Stateless;
// build a fresh value per task.
type Diagrammer struct {
	Renderer string
}

// New returns a Diagrammer for the given renderer. The renderer is
// validated lazily in Render so an unused bad setting does not fail
// construction.
func New(renderer string) *Diagrammer {
	if renderer == "" {
		renderer = RendererMermaid
	}
	return &Diagrammer{Renderer: renderer}
}

// Render produces the requested diagram from the index.
func (d *Diagrammer) Render(ix *index.Index, diagramType string) (*Diagram, error) {
	switch d.Renderer {
	case RendererMermaid, RendererGraphviz:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRenderer, d.Renderer)
	}

	var content string
	switch diagramType {
	case TypeModuleGraph:
		if d.Renderer == RendererGraphviz {
			content = moduleGraphDot(ix)
		} else {
			content = moduleGraphMermaid(ix)
		}
	case TypeCallGraph:
		if d.Renderer == RendererGraphviz {
			content = callGraphDot(ix)
		} else {
			content = callGraphMermaid(ix)
		}
	case TypeSequence:
		if d.Renderer != RendererMermaid {
			return nil, fmt.Errorf("%w: %s as %s", ErrRendererUnsupported, diagramType, d.Renderer)
		}
		content = sequenceMermaid(ix)
	case TypeDeployment:
		if d.Renderer != RendererMermaid {
			return nil, fmt.Errorf("%w: %s as %s", ErrRendererUnsupported, diagramType, d.Renderer)
		}
		content = deploymentMermaid()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, diagramType)
	}

	slog.Debug("Diagram rendered",
		logfields.Renderer(d.Renderer),
		slog.String("diagram_type", diagramType))
	return &Diagram{Type: diagramType, Format: d.Renderer, Content: content}, nil
}

// moduleEdges yields (from, to) node index pairs: an edge exists when
// another module's name contains one of the source module's dependency
// tokens. Containment, not resolution; false edges are accepted.
func moduleEdges(ix *index.Index) [][2]int {
	var edges [][2]int
	for from, m := range ix.Modules {
		for _, dep := range m.Dependencies {
			for to, other := range ix.Modules {
				if strings.Contains(other.Name, dep) {
					edges = append(edges, [2]int{from, to})
					break
				}
			}
		}
	}
	return edges
}

func moduleGraphMermaid(ix *index.Index) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for i, m := range ix.Modules {
		fmt.Fprintf(&b, "    M%d[\"%s\"]\n", i, m.Name)
	}
	for _, e := range moduleEdges(ix) {
		fmt.Fprintf(&b, "    M%d --> M%d\n", e[0], e[1])
	}
	return b.String()
}

func moduleGraphDot(ix *index.Index) string {
	var b strings.Builder
	b.WriteString("digraph ModuleGraph {\n    rankdir=LR;\n    node [shape=box];\n\n")
	for i, m := range ix.Modules {
		fmt.Fprintf(&b, "    M%d [label=\"%s\"];\n", i, m.Name)
	}
	b.WriteString("\n")
	for _, e := range moduleEdges(ix) {
		fmt.Fprintf(&b, "    M%d -> M%d;\n", e[0], e[1])
	}
	b.WriteString("}\n")
	return b.String()
}

// allFunctions collects function names over every file with retained
// content, in file order.
func allFunctions(ix *index.Index) []string {
	var funcs []string
	for _, f := range ix.Files {
		if f.Content == "" {
			continue
		}
		if l := lang.ForTag(f.Language); l != nil {
			funcs = append(funcs, l.ExtractFunctions(f.Content)...)
		}
	}
	return funcs
}

func callGraphMermaid(ix *index.Index) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	for i, fn := range allFunctions(ix) {
		fmt.Fprintf(&b, "    F%d[\"%s\"]\n", i, fn)
	}
	return b.String()
}

func callGraphDot(ix *index.Index) string {
	var b strings.Builder
	b.WriteString("digraph CallGraph {\n    rankdir=LR;\n    node [shape=ellipse];\n\n")
	for i, fn := range allFunctions(ix) {
		fmt.Fprintf(&b, "    F%d [label=\"%s\"];\n", i, fn)
	}
	b.WriteString("}\n")
	return b.String()
}

// sequenceMermaid sketches a call sequence between the first three modules.
// Not an actual call flow.
func sequenceMermaid(ix *index.Index) string {
	var b strings.Builder
	b.WriteString("sequenceDiagram\n")
	actors := ix.Modules
	if len(actors) > 3 {
		actors = actors[:3]
	}
	for _, m := range actors {
		fmt.Fprintf(&b, "    participant %s\n", m.Name)
	}
	if len(actors) >= 2 {
		fmt.Fprintf(&b, "    %s->>%s: call\n", actors[0].Name, actors[1].Name)
	}
	if len(actors) >= 3 {
		fmt.Fprintf(&b, "    %s->>%s: call\n", actors[1].Name, actors[2].Name)
	}
	return b.String()
}

func deploymentMermaid() string {
	return "graph TB\n" +
		"    subgraph \"Frontend\"\n" +
		"        FE[Frontend]\n" +
		"    end\n" +
		"    subgraph \"Backend\"\n" +
		"        BE[Backend]\n" +
		"    end\n" +
		"    subgraph \"Database\"\n" +
		"        DB[Database]\n" +
		"    end\n" +
		"    FE --> BE\n" +
		"    BE --> DB\n"
}
