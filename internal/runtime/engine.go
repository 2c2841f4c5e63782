package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
	"github.com/aretw0/auraflow/pkg/session"
)

// ErrEngineClosed is returned by every operation after Shutdown.
var ErrEngineClosed = errors.New("engine is shut down")

// maxAutoSteps bounds how many nodes one call may run without user input,
// which catches zero-delay cycles between message nodes.
const maxAutoSteps = 64

// Delays are the auto-advance pauses that model "typing".
// A zero delay advances inline, within the same call.
type Delays struct {
	Message   time.Duration
	Handoff   time.Duration
	Terminate time.Duration
}

// DefaultDelays matches the chat widget: 1.5s per message, 2s before a reset.
var DefaultDelays = Delays{
	Message:   1500 * time.Millisecond,
	Handoff:   1500 * time.Millisecond,
	Terminate: 2000 * time.Millisecond,
}

// Reply describes the effects of one engine call.
type Reply struct {
	SessionID string                   `json:"session_id"`
	Entries   []domain.Entry           `json:"entries"`
	State     domain.ConversationState `json:"state"`

	// Pending is true while an auto-advance is scheduled; more entries follow.
	Pending bool `json:"pending"`
}

// Engine is the flow interpreter. It is safe for concurrent use: calls for
// the same session are serialized by the session manager, calls for
// different sessions only share the read-only graph.
type Engine struct {
	source    ports.WorkflowSource
	sessions  *session.Manager
	inventory ports.InventoryService
	sales     ports.SaleRegistrar

	messages     Messages
	delays       Delays
	maxInputSize int
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string

	sched  *scheduler
	base   context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// Option configures the Engine.
type Option func(*Engine)

// WithInventory sets the catalogue used by sale nodes.
func WithInventory(inv ports.InventoryService) Option {
	return func(e *Engine) { e.inventory = inv }
}

// WithSaleRegistrar sets where sale nodes register requests.
func WithSaleRegistrar(r ports.SaleRegistrar) Option {
	return func(e *Engine) { e.sales = r }
}

// WithMessages overrides engine texts. Empty fields keep their defaults.
func WithMessages(m Messages) Option {
	return func(e *Engine) { e.messages = m.merge(DefaultMessages()) }
}

// WithDelays overrides the auto-advance delays.
func WithDelays(d Delays) Option {
	return func(e *Engine) { e.delays = d }
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) { e.maxInputSize = n }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger configures a logger for the Engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides transcript entry ids (uuid by default).
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine wires an engine over a workflow source and a session manager.
func NewEngine(source ports.WorkflowSource, sessions *session.Manager, opts ...Option) *Engine {
	e := &Engine{
		source:       source,
		sessions:     sessions,
		messages:     DefaultMessages(),
		delays:       DefaultDelays,
		maxInputSize: DefaultMaxInputSize,
		logger:       logging.NewNop(),
		now:          time.Now,
		newID:        uuid.NewString,
		sched:        newScheduler(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.base, e.cancel = context.WithCancel(context.Background())
	return e
}

// snapshot is the workflow as seen at the start of one call.
type snapshot struct {
	published *domain.Published
	// broken holds the MalformedGraph reported by a source whose published
	// document cannot be compiled.
	broken error
}

// snapshot fetches the published workflow. NotPublished and MalformedGraph
// are turn outcomes, not failures; only infrastructure errors are returned.
func (e *Engine) snapshot(ctx context.Context) (snapshot, error) {
	p, err := e.source.Load(ctx)
	switch {
	case err == nil:
		return snapshot{published: p}, nil
	case domain.IsNotPublished(err):
		return snapshot{}, nil
	case domain.IsMalformedGraph(err):
		return snapshot{broken: err}, nil
	default:
		return snapshot{}, fmt.Errorf("failed to load workflow: %w", err)
	}
}

// HandleMessage feeds one user message into the session's run.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	clean, err := SanitizeInput(text, e.maxInputSize)
	if err != nil {
		return nil, err
	}
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var t *turn
	conv, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, conv *domain.Conversation) error {
		t = e.newTurn(ctx, conv, snap)
		t.syncVersion()
		// A pending auto-advance completes before the message is accepted.
		if err := t.guard(func() error { return t.drain(nil) }); err != nil {
			return err
		}
		t.add(domain.RoleUser, clean)
		if t.unpublished() {
			t.say(e.messages.NotPublished)
			return nil
		}
		return t.guard(func() error { return t.dispatch(clean) })
	})
	if err != nil {
		return nil, err
	}
	t.publish(ctx)
	e.reschedule(sessionID, conv.State.Pending)
	return t.reply(conv), nil
}

// Open greets a session whose transcript is empty and applies any pending
// version change. It never starts a run.
func (e *Engine) Open(ctx context.Context, sessionID string) (*Reply, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var t *turn
	conv, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, conv *domain.Conversation) error {
		t = e.newTurn(ctx, conv, snap)
		t.syncVersion()
		if len(conv.Transcript) == 0 {
			if t.unpublished() {
				t.say(e.messages.NotPublished)
			} else {
				t.say(e.messages.FlowReady)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.publish(ctx)
	e.reschedule(sessionID, conv.State.Pending)
	return t.reply(conv), nil
}

// Tick compares the published version with the session's last-seen one and
// completes an auto-advance that is already due (e.g. after a restart).
// It is cheap when nothing changed and reports whether anything did.
func (e *Engine) Tick(ctx context.Context, sessionID string) (bool, error) {
	if e.closed.Load() {
		return false, ErrEngineClosed
	}
	snap, err := e.snapshot(ctx)
	if err != nil {
		return false, err
	}
	changed := false
	var t *turn
	conv, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, conv *domain.Conversation) error {
		if conv.Fresh() {
			return session.ErrSkipSave
		}
		t = e.newTurn(ctx, conv, snap)
		t.syncVersion()
		now := e.now()
		err := t.guard(func() error {
			return t.drain(func(p domain.PendingAdvance) bool { return !p.Due.After(now) })
		})
		if err != nil {
			return err
		}
		changed = t.changed()
		if !changed {
			return t.skip()
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	t.publish(ctx)
	e.reschedule(sessionID, conv.State.Pending)
	return changed, nil
}

// retryDelay spaces out auto-advances whose workflow could not be loaded.
const retryDelay = time.Second

// fire runs a scheduled auto-advance if it is still the session's current one.
func (e *Engine) fire(sessionID string, p domain.PendingAdvance) {
	ctx := e.base
	if ctx.Err() != nil {
		return
	}
	snap, err := e.snapshot(ctx)
	if err != nil {
		e.logger.Warn("auto-advance postponed", "session_id", sessionID, "node_id", p.NodeID, "err", err)
		e.sched.schedule(sessionID, retryDelay, func() { e.fire(sessionID, p) })
		return
	}
	var t *turn
	conv, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, conv *domain.Conversation) error {
		// Closed while this timer waited for the lock.
		if conv.Fresh() {
			return session.ErrSkipSave
		}
		t = e.newTurn(ctx, conv, snap)
		t.syncVersion()
		if cur := conv.State.Pending; cur == nil || !cur.Same(p) {
			if t.changed() {
				return nil
			}
			return t.skip()
		}
		return t.guard(func() error {
			return t.drain(func(q domain.PendingAdvance) bool { return q.Same(p) })
		})
	})
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Error("auto-advance failed", "session_id", sessionID, "node_id", p.NodeID, "err", err)
		}
		return
	}
	t.publish(ctx)
	e.reschedule(sessionID, conv.State.Pending)
}

func (e *Engine) reschedule(sessionID string, p *domain.PendingAdvance) {
	if p == nil {
		e.sched.cancel(sessionID)
		return
	}
	pending := *p
	d := pending.Due.Sub(e.now())
	if d < 0 {
		d = 0
	}
	e.sched.schedule(sessionID, d, func() { e.fire(sessionID, pending) })
}

// Reset clears state and transcript, as when the user closes the chat.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	e.sched.cancel(sessionID)
	var t *turn
	_, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, conv *domain.Conversation) error {
		t = e.newTurn(ctx, conv, snapshot{})
		conv.Transcript = []domain.Entry{}
		t.clear(domain.ResetByUser)
		return nil
	})
	if err != nil {
		return err
	}
	t.publish(ctx)
	return nil
}

// Close tears a session down: its timer is cancelled and its record deleted.
func (e *Engine) Close(ctx context.Context, sessionID string) error {
	e.sched.cancel(sessionID)
	return e.sessions.Delete(ctx, sessionID)
}

// Conversation returns the stored record of a session.
func (e *Engine) Conversation(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Transcript returns the session's transcript, empty for unknown sessions.
func (e *Engine) Transcript(ctx context.Context, sessionID string) ([]domain.Entry, error) {
	conv, err := e.sessions.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return []domain.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return conv.Transcript, nil
}

// Published returns the currently runnable workflow.
func (e *Engine) Published(ctx context.Context) (*domain.Published, error) {
	return e.source.Load(ctx)
}

// Watch applies version checks to every stored session each time the
// watcher reports a change, so idle sessions see the "new flow" notice
// without sending a message. It blocks until ctx is done.
func (e *Engine) Watch(ctx context.Context, w ports.VersionWatcher) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch workflow versions: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fp := "none"
			if ev.Version != nil {
				fp = ev.Version.Fingerprint()
			}
			e.logger.Info("published workflow changed", "version", fp)
			e.TickAll(ctx)
		}
	}
}

// TickAll runs Tick for every stored session. Failures are logged per session.
func (e *Engine) TickAll(ctx context.Context) {
	ids, err := e.sessions.List(ctx)
	if err != nil {
		e.logger.Error("failed to list sessions", "err", err)
		return
	}
	for _, id := range ids {
		if _, err := e.Tick(ctx, id); err != nil {
			e.logger.Warn("version check failed", "session_id", id, "err", err)
		}
	}
}

// Shutdown cancels every pending timer. The engine is unusable afterwards.
func (e *Engine) Shutdown() {
	if e.closed.Swap(true) {
		return
	}
	e.sched.stop()
	e.cancel()
}

// HasPendingTimer reports whether an auto-advance timer is armed for the session.
func (e *Engine) HasPendingTimer(sessionID string) bool {
	return e.sched.pending(sessionID)
}
