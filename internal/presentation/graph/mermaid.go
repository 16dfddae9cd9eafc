package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
)

// Overlay marks the steps a session went through.
type Overlay struct {
	Visited []string
	Current string
}

// OverlayFromEvents builds an overlay from the authors of a session log.
// The last non-user author becomes the current step.
func OverlayFromEvents(events []domain.Event) *Overlay {
	o := &Overlay{}
	for _, e := range events {
		if e.Author == "" || e.Author == domain.AuthorUser {
			continue
		}
		o.Visited = append(o.Visited, e.Author)
		o.Current = e.Author
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a step tree.
// Shapes follow the step kind:
// - Router: {Rhombus}
// - Loop: {{Hexagon}} labelled with its bound
// - Oracle with tools: [[Subroutine]]
// - Oracle: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(root flow.Description, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[string]bool)
	writeNode(&sb, root, seen)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		styled := make(map[string]bool)
		for _, name := range overlay.Visited {
			id := sanitizeMermaidID(name)
			if !seen[id] || styled[id] || name == overlay.Current {
				continue
			}
			styled[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if id := sanitizeMermaidID(overlay.Current); seen[id] {
			fmt.Fprintf(&sb, "    class %s current;\n", id)
		}
	}

	return sb.String()
}

func writeNode(sb *strings.Builder, d flow.Description, seen map[string]bool) {
	id := sanitizeMermaidID(d.Name)
	if seen[id] {
		return
	}
	seen[id] = true

	label := d.Name
	opener, closer := "[", "]"
	switch d.Kind {
	case flow.KindRouter:
		opener, closer = "{", "}"
	case flow.KindLoop:
		opener, closer = "{{", "}}"
		label = fmt.Sprintf("%s <br/> max %d rounds", d.Name, d.Max)
	case flow.KindOracle:
		opener, closer = "[/", "/]"
		if len(d.Tools) > 0 {
			opener, closer = "[[", "]]"
			tools := make([]string, len(d.Tools))
			for i, t := range d.Tools {
				tools[i] = string(t)
			}
			label = fmt.Sprintf("%s <br/> %s", d.Name, strings.Join(tools, ", "))
		}
	}
	fmt.Fprintf(sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

	for _, c := range d.Children {
		arrow := "-->"
		if c.Label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(c.Label, "\"", "'"))
		}
		fmt.Fprintf(sb, "    %s %s %s\n", id, arrow, sanitizeMermaidID(c.Name))
	}
	if d.Kind == flow.KindLoop && len(d.Children) > 0 {
		last := d.Children[len(d.Children)-1]
		fmt.Fprintf(sb, "    %s -. \"next round\" .-> %s\n", sanitizeMermaidID(last.Name), id)
	}
	for _, c := range d.Children {
		writeNode(sb, c.Description, seen)
	}
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
