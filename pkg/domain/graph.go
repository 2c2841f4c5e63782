package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

// StartNodeID is the id the editor assigns to the entry node.
const StartNodeID = "start-node"

// WorkflowGraph is the immutable, in-memory workflow. It is shared by
// reference across every session running the same published version.
type WorkflowGraph struct {
	nodes    []Node
	edges    []Edge
	byID     map[string]int
	outgoing map[string][]Edge
}

// NewWorkflowGraph indexes nodes and edges. Outgoing edges keep source order.
// Structural problems are reported by Validate, not here: a draft with
// dangling edges must still load so that only runs reaching the defect fail.
func NewWorkflowGraph(nodes []Node, edges []Edge) *WorkflowGraph {
	g := &WorkflowGraph{
		nodes:    slices.Clone(nodes),
		edges:    slices.Clone(edges),
		byID:     make(map[string]int, len(nodes)),
		outgoing: make(map[string][]Edge),
	}
	for i, n := range g.nodes {
		if _, dup := g.byID[n.ID]; !dup {
			g.byID[n.ID] = i
		}
	}
	for _, e := range g.edges {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	}
	return g
}

// Nodes returns a copy of the node list in authoring order.
func (g *WorkflowGraph) Nodes() []Node { return slices.Clone(g.nodes) }

// Edges returns a copy of the edge list in source order.
func (g *WorkflowGraph) Edges() []Edge { return slices.Clone(g.edges) }

// Node looks up a node by id.
func (g *WorkflowGraph) Node(id string) (Node, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Outgoing returns the edges leaving a node in source order.
// The returned slice must not be modified.
func (g *WorkflowGraph) Outgoing(id string) []Edge {
	return g.outgoing[id]
}

// Start returns the designated entry node: the single node of kind start,
// or the node with id StartNodeID when no node declares the kind.
func (g *WorkflowGraph) Start() (Node, error) {
	n, reason := g.findStart()
	if reason != "" {
		return Node{}, ErrMalformedGraph(reason)
	}
	return n, nil
}

func (g *WorkflowGraph) findStart() (Node, string) {
	var found []Node
	for _, n := range g.nodes {
		if n.Kind == KindStart {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 1:
		return found[0], ""
	case 0:
		if n, ok := g.Node(StartNodeID); ok {
			return n, ""
		}
		return Node{}, "start node not found"
	default:
		return Node{}, "more than one start node"
	}
}

// Issue is a structural finding reported by Validate.
type Issue struct {
	Severity string `json:"severity"` // "error" or "warning"
	NodeID   string `json:"node_id,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: node %q: %s", i.Severity, i.NodeID, i.Message)
}

// Validate reports structural defects. Errors make some run fail with
// MalformedGraph; warnings are legal but likely authoring mistakes.
func (g *WorkflowGraph) Validate() []Issue {
	var issues []Issue
	start, reason := g.findStart()
	if reason != "" {
		issues = append(issues, Issue{Severity: "error", Message: reason})
	} else if len(g.Outgoing(start.ID)) == 0 {
		issues = append(issues, Issue{Severity: "error", NodeID: start.ID, Message: "no node connected to start"})
	}

	seen := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		if seen[n.ID] {
			issues = append(issues, Issue{Severity: "error", NodeID: n.ID, Message: "duplicate node id"})
		}
		seen[n.ID] = true
		if n.Kind == KindUnsupported {
			editorType := ""
			if d, ok := n.Data.(UnsupportedData); ok {
				editorType = d.EditorType
			}
			issues = append(issues, Issue{Severity: "error", NodeID: n.ID, Message: fmt.Sprintf("unsupported node type %q", editorType)})
		}
		if d, ok := n.Data.(OptionsData); ok && len(g.Outgoing(n.ID)) < len(d.Options) {
			issues = append(issues, Issue{
				Severity: "warning",
				NodeID:   n.ID,
				Message:  fmt.Sprintf("%d options but only %d outgoing edges", len(d.Options), len(g.Outgoing(n.ID))),
			})
		}
	}

	for _, e := range g.edges {
		if _, ok := g.byID[e.Source]; !ok {
			issues = append(issues, Issue{Severity: "error", NodeID: e.Source, Message: "edge from unknown node"})
		}
		if _, ok := g.byID[e.Target]; !ok {
			issues = append(issues, Issue{Severity: "error", NodeID: e.Target, Message: "edge to unknown node"})
		}
	}

	if reason == "" {
		reached := g.reachable(start.ID)
		for _, n := range g.nodes {
			if !reached[n.ID] {
				issues = append(issues, Issue{Severity: "warning", NodeID: n.ID, Message: "unreachable from start"})
			}
		}
	}
	return issues
}

func (g *WorkflowGraph) reachable(from string) map[string]bool {
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.outgoing[id] {
			if !seen[e.Target] {
				seen[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return seen
}

// GraphVersion fingerprints a published workflow.
// LoadedAt is the publication instant reported by the source, so repeated
// loads of the same publication compare equal.
type GraphVersion struct {
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	NodeIDs   []string  `json:"node_ids"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// NewGraphVersion derives the fingerprint of g published at loadedAt.
func NewGraphVersion(g *WorkflowGraph, loadedAt time.Time) GraphVersion {
	ids := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		ids = append(ids, n.ID)
	}
	slices.Sort(ids)
	return GraphVersion{
		NodeCount: len(g.nodes),
		EdgeCount: len(g.edges),
		NodeIDs:   ids,
		LoadedAt:  loadedAt.UTC(),
	}
}

// Equal compares two fingerprints without side effects.
func (v GraphVersion) Equal(o GraphVersion) bool {
	return v.NodeCount == o.NodeCount &&
		v.EdgeCount == o.EdgeCount &&
		v.LoadedAt.Equal(o.LoadedAt) &&
		slices.Equal(v.NodeIDs, o.NodeIDs)
}

// Fingerprint is a compact, stable digest of the version.
func (v GraphVersion) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%d", v.NodeCount, v.EdgeCount, strings.Join(v.NodeIDs, ","), v.LoadedAt.UnixNano())
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Published is a runnable workflow together with its version.
type Published struct {
	Graph   *WorkflowGraph
	Version GraphVersion
}

// SameVersion reports whether a (possibly nil) last-seen version matches cur.
func SameVersion(last *GraphVersion, cur *GraphVersion) bool {
	if last == nil || cur == nil {
		return last == nil && cur == nil
	}
	return last.Equal(*cur)
}
