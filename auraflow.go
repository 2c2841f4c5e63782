package auraflow

import (
	"errors"
	"log/slog"

	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/internal/runtime"
	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
	"github.com/aretw0/auraflow/pkg/session"
)

// Version is the release of this module.
const Version = "0.4.0"

type (
	// Reply describes the effects of one engine call.
	Reply = runtime.Reply
	// Messages holds the texts the engine writes on its own.
	Messages = runtime.Messages
	// Delays are the auto-advance pauses of message, handoff and terminate nodes.
	Delays = runtime.Delays
)

// DefaultDelays matches the chat widget.
var DefaultDelays = runtime.DefaultDelays

// NoDelays makes every run synchronous.
var NoDelays = Delays{}

// ErrNoSource is returned by New without a workflow source.
var ErrNoSource = errors.New("a workflow source is required")

// Engine is the high-level entry point for the auraflow library.
// It wires the flow interpreter with a session manager and collaborators.
type Engine struct {
	*runtime.Engine

	sessions *session.Manager
	store    ports.ConversationStore
	locker   ports.DistributedLocker

	inventory ports.InventoryService
	sales     ports.SaleRegistrar

	runtimeOpts []runtime.Option
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where conversations are persisted (memory by default).
func WithStore(s ports.ConversationStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithLocker enables cross-replica locking of sessions.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithInventory sets the catalogue used by sale nodes.
func WithInventory(inv ports.InventoryService) Option {
	return func(e *Engine) { e.inventory = inv }
}

// WithSaleRegistrar sets where sale nodes register requests.
func WithSaleRegistrar(r ports.SaleRegistrar) Option {
	return func(e *Engine) { e.sales = r }
}

// WithWorkshop sets a collaborator that serves both the inventory and the
// sale registration.
func WithWorkshop(w interface {
	ports.InventoryService
	ports.SaleRegistrar
}) Option {
	return func(e *Engine) {
		e.inventory = w
		e.sales = w
	}
}

// WithMessages overrides engine texts. Empty fields keep their defaults.
func WithMessages(m Messages) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithMessages(m)) }
}

// WithDelays overrides the auto-advance delays.
func WithDelays(d Delays) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithDelays(d)) }
}

// WithMaxInputSize limits accepted user messages, in bytes.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxInputSize(n)) }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine that runs whatever source currently publishes.
// Without WithStore conversations live in memory; without a workshop, sale
// nodes see an empty catalogue.
func New(source ports.WorkflowSource, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, ErrNoSource
	}

	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.inventory == nil && e.sales == nil {
		w := memory.NewWorkshop()
		e.inventory, e.sales = w, w
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithInventory(e.inventory),
		runtime.WithSaleRegistrar(e.sales),
	}
	runtimeOpts = append(runtimeOpts, e.runtimeOpts...)
	e.Engine = runtime.NewEngine(source, e.sessions, runtimeOpts...)
	return e, nil
}

// Sessions exposes the single-writer session boundary.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
