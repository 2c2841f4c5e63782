package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter   EventType = "node_enter"
	EventEntry       EventType = "entry"
	EventReset       EventType = "reset"
	EventHandlerFail EventType = "handler_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// NodeEvent is emitted when a run enters a node.
type NodeEvent struct {
	EventBase
	NodeID string   `json:"node_id"`
	Kind   NodeKind `json:"kind"`
}

// EntryEvent is emitted for every transcript append.
type EntryEvent struct {
	EventBase
	Entry Entry `json:"entry"`
}

// ResetReason says why a conversation went back to Idle.
type ResetReason string

const (
	ResetTerminated     ResetReason = "terminated"
	ResetEndOfFlow      ResetReason = "end_of_flow"
	ResetNoAgent        ResetReason = "no_agent"
	ResetMisconfigured  ResetReason = "misconfigured"
	ResetVersionChanged ResetReason = "version_changed"
	ResetUnpublished    ResetReason = "unpublished"
	ResetCancelled      ResetReason = "cancelled"
	ResetByUser         ResetReason = "closed"
)

// ResetEvent is emitted when state is cleared.
type ResetEvent struct {
	EventBase
	Reason ResetReason `json:"reason"`
}

// HandlerErrorEvent is emitted when a handler recovers from a taxonomy error.
type HandlerErrorEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Err    error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnEntry        func(context.Context, *EntryEvent)
	OnReset        func(context.Context, *ResetEvent)
	OnHandlerError func(context.Context, *HandlerErrorEvent)
}

// MergeHooks chains several hook sets; callbacks run in argument order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		out.OnEntry = chain(out.OnEntry, h.OnEntry)
		out.OnReset = chain(out.OnReset, h.OnReset)
		out.OnHandlerError = chain(out.OnHandlerError, h.OnHandlerError)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
