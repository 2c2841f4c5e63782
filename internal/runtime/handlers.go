package runtime

import (
	"slices"

	"github.com/aretw0/auraflow/pkg/domain"
)

func (t *turn) enterStart(node domain.Node) (*domain.Node, error) {
	if len(t.graph.Outgoing(node.ID)) == 0 {
		return nil, domain.ErrMalformedGraph("no node connected to start")
	}
	return t.leave(node, nil)
}

func (t *turn) enterMessage(node domain.Node, d domain.MessageData) (*domain.Node, error) {
	t.say(orDefault(d.Text, t.e.messages.DefaultMessage))
	return t.autoAdvance(node, domain.AdvanceNext, t.e.delays.Message)
}

func (t *turn) enterOptions(node domain.Node, d domain.OptionsData) (*domain.Node, error) {
	if len(d.Options) == 0 {
		return nil, domain.ErrMalformedGraph("options node without options").WithDetail("node_id", node.ID)
	}
	prompt := orDefault(d.Prompt, t.e.messages.DefaultOptionsPrompt)
	t.say(renderOptions(prompt, d.Options, t.e.messages.OptionsHint))
	t.await(node)
	t.conv.State.ActiveOptions = slices.Clone(d.Options)
	t.conv.State.ActiveOptionsPrompt = prompt
	return nil, nil
}

// inputOptions accepts an integer in [1, len(options)] and follows branch input-1.
// Anything else re-emits the same prompt and leaves the state untouched.
func (t *turn) inputOptions(node domain.Node, text string) (*domain.Node, error) {
	st := &t.conv.State
	n, ok := parseChoice(text, 1, len(st.ActiveOptions))
	if !ok {
		t.rejected(node, text)
		t.say(t.e.messages.InvalidOptionPrefix + renderOptions(st.ActiveOptionsPrompt, st.ActiveOptions, t.e.messages.OptionsHint))
		return nil, nil
	}
	branch := n - 1
	return t.leave(node, &branch)
}

func (t *turn) enterHandoff(node domain.Node, d domain.HandoffData) (*domain.Node, error) {
	t.say(orDefault(d.Message, t.e.messages.DefaultHandoff))
	return t.autoAdvance(node, domain.AdvanceNext, t.e.delays.Handoff)
}

// completeHandoff connects the operator, or reports that nobody is available
// and ends the run when the handoff has no continuation.
func (t *turn) completeHandoff(node domain.Node, d domain.HandoffData) (*domain.Node, error) {
	if len(t.graph.Outgoing(node.ID)) == 0 {
		t.say(orDefault(d.NoAgentMessage, t.e.messages.DefaultNoAgent))
		t.clear(domain.ResetNoAgent)
		return nil, nil
	}
	return t.leave(node, nil)
}

func (t *turn) enterTerminate(node domain.Node, d domain.TerminateData) (*domain.Node, error) {
	t.say(orDefault(d.Message, t.e.messages.DefaultFarewell))
	return t.autoAdvance(node, domain.AdvanceReset, t.e.delays.Terminate)
}
