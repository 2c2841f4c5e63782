package dsl

import "github.com/aretw0/auraflow/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

func (n *NodeBuilder) kind(data domain.NodeData) *NodeBuilder {
	n.node.Kind = data.Kind()
	n.node.Data = data
	return n
}

// Label sets the editor label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Message makes the node send text and move on.
func (n *NodeBuilder) Message(text string) *NodeBuilder {
	return n.kind(domain.MessageData{Text: text})
}

// Options makes the node ask a numbered question. Use Branch to route each answer.
func (n *NodeBuilder) Options(prompt string, texts ...string) *NodeBuilder {
	opts := make([]domain.Option, 0, len(texts))
	for _, t := range texts {
		opts = append(opts, domain.Option{Text: t})
	}
	return n.kind(domain.OptionsData{Prompt: prompt, Options: opts})
}

// Sale makes the node offer the workshop inventory.
func (n *NodeBuilder) Sale() *NodeBuilder {
	return n.kind(domain.SaleData{})
}

// SaleWith is Sale with custom texts.
func (n *NodeBuilder) SaleWith(d domain.SaleData) *NodeBuilder {
	return n.kind(d)
}

// Schedule makes the node offer the given slots.
func (n *NodeBuilder) Schedule(prompt string, slots ...domain.Slot) *NodeBuilder {
	return n.kind(domain.ScheduleData{Prompt: prompt, Slots: slots})
}

// Confirm sets the confirmation and cancellation texts of a schedule node.
// "{slot}" is replaced by the chosen slot.
func (n *NodeBuilder) Confirm(confirmation, cancellation string) *NodeBuilder {
	if d, ok := n.node.Data.(domain.ScheduleData); ok {
		d.ConfirmationMessage = confirmation
		d.CancellationMessage = cancellation
		n.node.Data = d
	}
	return n
}

// Handoff makes the node transfer the visitor to a human agent.
func (n *NodeBuilder) Handoff() *NodeBuilder {
	return n.kind(domain.HandoffData{})
}

// Terminate ends the conversation with an optional message.
func (n *NodeBuilder) Terminate(message string) *NodeBuilder {
	return n.kind(domain.TerminateData{Message: message})
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.connect(domain.Edge{Source: n.node.ID, Target: target})
	return n
}

// Branch routes the option at index (zero-based) to the target node.
func (n *NodeBuilder) Branch(index int, target string) *NodeBuilder {
	n.builder.connect(domain.Edge{Source: n.node.ID, Target: target, BranchHandle: domain.BranchHandle(index)})
	return n
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	if n.node.Data == nil {
		return domain.Node{ID: n.node.ID, Kind: domain.KindUnsupported, Label: n.node.Label, Data: domain.UnsupportedData{}}
	}
	return n.node
}
