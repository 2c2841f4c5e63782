package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/auraflow/internal/presentation/graph"
	"github.com/aretw0/auraflow/pkg/domain"
)

func sampleGraph() *domain.WorkflowGraph {
	return domain.NewWorkflowGraph(
		[]domain.Node{
			{ID: "start-node", Kind: domain.KindStart, Data: domain.StartData{}},
			{ID: "menu", Kind: domain.KindOptions, Label: "Menu \"principal\"", Data: domain.OptionsData{
				Options: []domain.Option{{Text: "Vendas"}, {Text: "Suporte"}},
			}},
			{ID: "sale.1", Kind: domain.KindSale, Data: domain.SaleData{}},
			{ID: "agent", Kind: domain.KindHandoff, Data: domain.HandoffData{}},
			{ID: "bye", Kind: domain.KindTerminate, Data: domain.TerminateData{}},
			{ID: "legacy", Kind: domain.KindUnsupported, Data: domain.UnsupportedData{EditorType: "webhook"}},
		},
		[]domain.Edge{
			{Source: "start-node", Target: "menu"},
			{Source: "menu", Target: "sale.1", BranchHandle: domain.BranchHandle(0)},
			{Source: "menu", Target: "agent", BranchHandle: domain.BranchHandle(1)},
			{Source: "agent", Target: "bye"},
		},
	)
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Node Shapes",
			contains: []string{
				"start_node((\"start-node\"))",
				"menu[/\"Menu 'principal'\"/]",
				"sale_1[/\"sale.1\"/]",
				"agent[[\"agent\"]]",
				"bye([\"bye\"])",
				"legacy{{\"legacy\"}}",
			},
		},
		{
			name: "Edges",
			contains: []string{
				"start_node --> menu",
				"menu -- \"1. Vendas\" --> sale_1",
				"menu -- \"2. Suporte\" --> agent",
				"agent --> bye",
			},
			excludes: []string{"classDef"},
		},
		{
			name:    "Overlay",
			overlay: &graph.GraphOverlay{CurrentNode: "menu", AwaitingInput: true},
			contains: []string{
				"classDef waiting",
				"class menu waiting;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(sampleGraph(), tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("expected graph TD header, got %q", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q\nGot:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("expected output to not contain %q", bad)
				}
			}
		})
	}
}
