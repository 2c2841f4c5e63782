package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/auraflow/pkg/domain"
)

// GraphOverlay contains conversation data to visualize on the graph.
type GraphOverlay struct {
	CurrentNode string
	// AwaitingInput marks the current node as stopped for an answer.
	AwaitingInput bool
}

// GenerateMermaid produces a Mermaid flowchart of a workflow.
// Shapes follow the node kind:
//   - start: ((circle))
//   - options, sale, schedule: [/parallelogram/] (they wait for input)
//   - handoff: [[subroutine]]
//   - terminate: ([stadium])
//   - unsupported: {{hexagon}}
//
// Branch edges are labeled with the option text.
func GenerateMermaid(g *domain.WorkflowGraph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		opener, closer := shape(node.Kind)
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, escape(label(node)), closer))
	}

	for _, node := range g.Nodes() {
		for _, e := range g.Outgoing(node.ID) {
			arrow := "-->"
			if text := branchLabel(node, e); text != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", escape(text))
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target)))
		}
	}

	if overlay != nil && overlay.CurrentNode != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef waiting fill:#e1f5fe,stroke:#01579b,stroke-width:4px,color:#000;\n")
		class := "current"
		if overlay.AwaitingInput {
			class = "waiting"
		}
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(overlay.CurrentNode), class))
	}

	return sb.String()
}

func shape(kind domain.NodeKind) (string, string) {
	switch kind {
	case domain.KindStart:
		return "((", "))"
	case domain.KindOptions, domain.KindSale, domain.KindSchedule:
		return "[/", "/]"
	case domain.KindHandoff:
		return "[[", "]]"
	case domain.KindTerminate:
		return "([", "])"
	case domain.KindUnsupported:
		return "{{", "}}"
	}
	return "[", "]"
}

func label(n domain.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// branchLabel names the option an edge leaves from, for options nodes only.
func branchLabel(n domain.Node, e domain.Edge) string {
	d, ok := n.Data.(domain.OptionsData)
	if !ok || e.BranchHandle == "" {
		return ""
	}
	i := e.Ordinal()
	if i < len(d.Options) {
		return fmt.Sprintf("%d. %s", i+1, d.Options[i].Text)
	}
	return fmt.Sprintf("%d", i+1)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
