package runtime

import (
	"slices"

	"github.com/aretw0/auraflow/pkg/domain"
)

// Match says how the Edge Resolver picked an edge.
type Match int

const (
	// MatchNone: the node has no outgoing edges.
	MatchNone Match = iota
	// MatchDefault: no branch was requested; lowest ordinal wins.
	MatchDefault
	// MatchHandle: the canonical "output-<n>" handle matched exactly.
	MatchHandle
	// MatchOrdinal: the n-th edge after sorting by parsed ordinal.
	MatchOrdinal
	// MatchFirstEdge: last resort, first edge in source order. On a
	// well-formed graph this never happens; it is reported so the caller can warn.
	MatchFirstEdge
)

// Resolution is the outcome of resolving the next node.
type Resolution struct {
	Node  *domain.Node
	Edge  domain.Edge
	Match Match
}

// Resolve picks the node that follows from along branch (nil when the node
// does not branch). It is a pure function of its inputs. A dangling edge is
// a MalformedGraph.
func Resolve(g *domain.WorkflowGraph, from string, branch *int) (Resolution, error) {
	out := g.Outgoing(from)
	if len(out) == 0 {
		return Resolution{Match: MatchNone}, nil
	}

	byOrdinal := slices.Clone(out)
	slices.SortStableFunc(byOrdinal, func(a, b domain.Edge) int {
		return a.Ordinal() - b.Ordinal()
	})

	var edge domain.Edge
	var match Match
	switch {
	case branch == nil:
		edge, match = byOrdinal[0], MatchDefault
	default:
		want := domain.BranchHandle(*branch)
		i := slices.IndexFunc(out, func(e domain.Edge) bool { return e.BranchHandle == want })
		switch {
		case i >= 0:
			edge, match = out[i], MatchHandle
		case *branch >= 0 && *branch < len(byOrdinal):
			edge, match = byOrdinal[*branch], MatchOrdinal
		default:
			edge, match = out[0], MatchFirstEdge
		}
	}

	target, ok := g.Node(edge.Target)
	if !ok {
		return Resolution{}, domain.ErrMalformedGraph("dangling edge").
			WithDetail("source", edge.Source).
			WithDetail("target", edge.Target)
	}
	return Resolution{Node: &target, Edge: edge, Match: match}, nil
}

// Next returns the node that follows from, or nil when from has no outgoing edge.
func Next(g *domain.WorkflowGraph, from string, branch *int) (*domain.Node, error) {
	r, err := Resolve(g, from, branch)
	if err != nil {
		return nil, err
	}
	return r.Node, nil
}
