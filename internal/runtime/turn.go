package runtime

import (
	"context"
	"time"

	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/session"
)

// turn is one engine call against one conversation, executed under the
// session lock. All mutations go through it so hooks see every effect in order.
// Hook events are buffered and only published once the conversation is saved.
type turn struct {
	e       *Engine
	ctx     context.Context
	conv    *domain.Conversation
	graph   *domain.WorkflowGraph
	version domain.GraphVersion
	broken  error

	added          []domain.Entry
	wasReset       bool
	versionChanged bool
	steps          int

	events []func(context.Context)
}

func (e *Engine) newTurn(ctx context.Context, conv *domain.Conversation, snap snapshot) *turn {
	t := &turn{e: e, ctx: ctx, conv: conv, broken: snap.broken}
	if snap.published != nil {
		t.graph = snap.published.Graph
		t.version = snap.published.Version
	}
	return t
}

func (t *turn) unpublished() bool {
	return t.graph == nil && t.broken == nil
}

func (t *turn) changed() bool {
	return len(t.added) > 0 || t.wasReset || t.versionChanged
}

func (t *turn) reply(conv *domain.Conversation) *Reply {
	entries := t.added
	if entries == nil {
		entries = []domain.Entry{}
	}
	return &Reply{
		SessionID: conv.SessionID,
		Entries:   entries,
		State:     conv.State.Clone(),
		Pending:   conv.State.Pending != nil,
	}
}

// emit queues a hook call until publish.
func (t *turn) emit(fn func(context.Context)) {
	t.events = append(t.events, fn)
}

// publish runs the queued hook calls. Call it only after a successful save.
func (t *turn) publish(ctx context.Context) {
	if t == nil {
		return
	}
	events := t.events
	t.events = nil
	for _, fn := range events {
		fn(ctx)
	}
}

// skip ends the update without writing; queued events are dropped with it.
func (t *turn) skip() error {
	t.events = nil
	return session.ErrSkipSave
}

func (t *turn) base(typ domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: t.e.now(), Type: typ, SessionID: t.conv.SessionID}
}

// add appends a transcript entry.
func (t *turn) add(role domain.Role, content string) {
	entry := domain.Entry{
		ID:        t.e.newID(),
		Role:      role,
		Content:   content,
		CreatedAt: t.e.now().UTC(),
	}
	t.conv.Transcript = append(t.conv.Transcript, entry)
	t.added = append(t.added, entry)
	if h := t.e.hooks.OnEntry; h != nil {
		ev := &domain.EntryEvent{EventBase: t.base(domain.EventEntry), Entry: entry}
		t.emit(func(ctx context.Context) { h(ctx, ev) })
	}
}

func (t *turn) say(content string) {
	t.add(domain.RoleAssistant, content)
}

// clear returns the conversation to Idle. The transcript is kept.
func (t *turn) clear(reason domain.ResetReason) {
	t.conv.State = domain.ConversationState{}
	t.wasReset = true
	t.e.logger.Debug("conversation reset", "session_id", t.conv.SessionID, "reason", reason)
	if h := t.e.hooks.OnReset; h != nil {
		ev := &domain.ResetEvent{EventBase: t.base(domain.EventReset), Reason: reason}
		t.emit(func(ctx context.Context) { h(ctx, ev) })
	}
}

// syncVersion discards state that was built against another published graph.
// A session's first contact only records the version.
func (t *turn) syncVersion() {
	if t.broken != nil {
		return
	}
	var cur *domain.GraphVersion
	if t.graph != nil {
		v := t.version
		cur = &v
	}
	last := t.conv.LastSeen
	if domain.SameVersion(last, cur) {
		return
	}
	t.versionChanged = true

	switch {
	case cur == nil:
		if !t.conv.State.Idle() {
			t.clear(domain.ResetUnpublished)
		}
		t.conv.LastSeen = nil
	case last == nil && t.conv.State.Idle() && len(t.conv.Transcript) == 0:
		t.conv.LastSeen = cur
	default:
		t.e.logger.Info("new workflow version, discarding conversation",
			"session_id", t.conv.SessionID,
			"version", cur.Fingerprint(),
		)
		t.conv.Transcript = []domain.Entry{}
		t.clear(domain.ResetVersionChanged)
		t.conv.LastSeen = cur
		t.say(t.e.messages.FlowLoaded)
	}
}

// guard is the outermost dispatch boundary: a MalformedGraph becomes a
// "flow misconfigured" message and a reset to Idle. Other errors pass through.
func (t *turn) guard(fn func() error) error {
	err := fn()
	if err == nil || !domain.IsMalformedGraph(err) {
		return err
	}
	nodeID := t.conv.State.CurrentNodeID
	t.e.logger.Error("workflow misconfigured",
		"session_id", t.conv.SessionID,
		"node_id", nodeID,
		"err", err,
	)
	t.hookError(nodeID, err)
	t.say(t.e.messages.Misconfigured)
	t.clear(domain.ResetMisconfigured)
	return nil
}

func (t *turn) hookError(nodeID string, err error) {
	if h := t.e.hooks.OnHandlerError; h != nil {
		ev := &domain.HandlerErrorEvent{
			EventBase: t.base(domain.EventHandlerFail),
			NodeID:    nodeID,
			Err:       err,
		}
		t.emit(func(ctx context.Context) { h(ctx, ev) })
	}
}

// drain completes pending auto-advances accepted by pred (all when nil).
func (t *turn) drain(pred func(domain.PendingAdvance) bool) error {
	for t.conv.State.Pending != nil {
		p := *t.conv.State.Pending
		if pred != nil && !pred(p) {
			return nil
		}
		if err := t.step(); err != nil {
			return err
		}
		next, err := t.firePending(p)
		if err != nil {
			return err
		}
		if err := t.run(next); err != nil {
			return err
		}
	}
	return nil
}

// dispatch routes user text: to the awaiting handler, or to a new run.
func (t *turn) dispatch(text string) error {
	if t.broken != nil {
		return t.broken
	}
	st := &t.conv.State
	if st.AwaitingInput {
		node, ok := t.graph.Node(st.CurrentNodeID)
		if !ok {
			return domain.ErrMalformedGraph("awaiting node no longer exists").WithDetail("node_id", st.CurrentNodeID)
		}
		next, err := t.input(node, text)
		if err != nil {
			return err
		}
		return t.run(next)
	}

	if !st.Idle() {
		t.e.logger.Debug("restarting interrupted run", "session_id", t.conv.SessionID, "node_id", st.CurrentNodeID)
	}
	start, err := t.graph.Start()
	if err != nil {
		return err
	}
	return t.run(&start)
}

func (t *turn) step() error {
	t.steps++
	if t.steps > maxAutoSteps {
		return domain.ErrMalformedGraph("auto-advance loop")
	}
	return nil
}

// run enters nodes until a handler pauses (awaiting input, pending advance) or the run ends.
func (t *turn) run(node *domain.Node) error {
	for node != nil {
		if err := t.step(); err != nil {
			return err
		}
		next, err := t.enter(*node)
		if err != nil {
			return err
		}
		node = next
	}
	return nil
}

// leave moves past node through the Edge Resolver. With no outgoing edge the
// run ends implicitly and the state is cleared.
func (t *turn) leave(node domain.Node, branch *int) (*domain.Node, error) {
	r, err := Resolve(t.graph, node.ID, branch)
	if err != nil {
		return nil, err
	}
	switch r.Match {
	case MatchNone:
		t.clear(domain.ResetEndOfFlow)
		return nil, nil
	case MatchFirstEdge:
		t.e.logger.Warn("no edge for branch, falling back to first edge",
			"session_id", t.conv.SessionID,
			"node_id", node.ID,
			"branch", *branch,
			"target", r.Node.ID,
		)
	case MatchOrdinal:
		t.e.logger.Debug("branch resolved by ordinal position",
			"node_id", node.ID,
			"branch", *branch,
			"handle", r.Edge.BranchHandle,
		)
	}
	t.conv.State = domain.ConversationState{CurrentNodeID: r.Node.ID}
	return r.Node, nil
}

// await pauses the run on node until the next user message.
func (t *turn) await(node domain.Node) {
	st := &t.conv.State
	st.CurrentNodeID = node.ID
	st.AwaitingInput = true
	st.Pending = nil
}

// autoAdvance schedules the follow-up of a node that needs no input.
// With a zero delay it happens inline.
func (t *turn) autoAdvance(node domain.Node, action domain.AdvanceAction, delay time.Duration) (*domain.Node, error) {
	p := domain.PendingAdvance{Action: action, NodeID: node.ID, Due: t.e.now().Add(delay).UTC()}
	if delay <= 0 {
		return t.firePending(p)
	}
	t.conv.State = domain.ConversationState{CurrentNodeID: node.ID, Pending: &p}
	return nil, nil
}

func (t *turn) firePending(p domain.PendingAdvance) (*domain.Node, error) {
	t.conv.State.Pending = nil
	if t.graph == nil {
		if t.broken != nil {
			return nil, t.broken
		}
		t.clear(domain.ResetUnpublished)
		return nil, nil
	}
	node, ok := t.graph.Node(p.NodeID)
	if !ok {
		return nil, domain.ErrMalformedGraph("pending node no longer exists").WithDetail("node_id", p.NodeID)
	}
	if p.Action == domain.AdvanceReset {
		t.clear(domain.ResetTerminated)
		return nil, nil
	}
	if d, ok := node.Data.(domain.HandoffData); ok {
		return t.completeHandoff(node, d)
	}
	return t.leave(node, nil)
}

// enter runs the handler of node's kind.
func (t *turn) enter(node domain.Node) (*domain.Node, error) {
	t.conv.State.CurrentNodeID = node.ID
	if h := t.e.hooks.OnNodeEnter; h != nil {
		ev := &domain.NodeEvent{
			EventBase: t.base(domain.EventNodeEnter),
			NodeID:    node.ID,
			Kind:      node.Kind,
		}
		t.emit(func(ctx context.Context) { h(ctx, ev) })
	}

	switch d := node.Data.(type) {
	case domain.StartData:
		return t.enterStart(node)
	case domain.MessageData:
		return t.enterMessage(node, d)
	case domain.OptionsData:
		return t.enterOptions(node, d)
	case domain.SaleData:
		return t.enterSale(node, d)
	case domain.HandoffData:
		return t.enterHandoff(node, d)
	case domain.TerminateData:
		return t.enterTerminate(node, d)
	case domain.ScheduleData:
		return t.enterSchedule(node, d)
	case domain.UnsupportedData:
		return nil, domain.ErrMalformedGraph("unsupported node type").WithDetail("type", d.EditorType)
	default:
		return nil, domain.ErrMalformedGraph("node has no configuration").WithDetail("node_id", node.ID)
	}
}

// input hands user text to the awaiting node's handler.
func (t *turn) input(node domain.Node, text string) (*domain.Node, error) {
	switch d := node.Data.(type) {
	case domain.OptionsData:
		return t.inputOptions(node, text)
	case domain.SaleData:
		return t.inputSale(node, d, text)
	case domain.ScheduleData:
		return t.inputSchedule(node, d, text)
	default:
		return nil, domain.ErrMalformedGraph("node does not accept input").WithDetail("node_id", node.ID)
	}
}

func (t *turn) rejected(node domain.Node, text string) {
	t.e.logger.Debug("invalid input", "session_id", t.conv.SessionID, "node_id", node.ID)
	t.hookError(node.ID, domain.ErrInvalidUserInput(text))
}

func (t *turn) external(node domain.Node, service string, err error) {
	t.e.logger.Warn("external service failed",
		"session_id", t.conv.SessionID,
		"node_id", node.ID,
		"service", service,
		"err", err,
	)
	t.hookError(node.ID, domain.ErrExternalService(service, err))
}
