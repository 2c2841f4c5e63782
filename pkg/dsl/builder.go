package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Start adds the start node.
func (b *Builder) Start() *NodeBuilder {
	return b.Add(domain.StartNodeID).kind(domain.StartData{})
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

func (b *Builder) connect(e domain.Edge) {
	if e.ID == "" {
		e.ID = fmt.Sprintf("e%d", len(b.edges)+1)
	}
	b.edges = append(b.edges, e)
}

// Graph returns the graph in insertion order. Nodes without a kind are
// reported as unsupported by the interpreter.
func (b *Builder) Graph() *domain.WorkflowGraph {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].Build())
	}
	return domain.NewWorkflowGraph(nodes, append([]domain.Edge(nil), b.edges...))
}

// Publish validates the graph and publishes it on a new in-memory source.
// Structural errors fail the build; warnings do not.
func (b *Builder) Publish() (*memory.Source, error) {
	g := b.Graph()
	var errs []error
	for _, issue := range g.Validate() {
		if issue.Severity == "error" {
			errs = append(errs, errors.New(issue.String()))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to build workflow: %w", errors.Join(errs...))
	}

	source := memory.NewSource()
	source.Publish(g)
	return source, nil
}
