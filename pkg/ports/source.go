package ports

import (
	"context"

	"github.com/aretw0/auraflow/pkg/domain"
)

// WorkflowSource loads the operator's published workflow.
type WorkflowSource interface {
	// Load returns the published graph and its version.
	// It fails with domain.ErrNotPublished when nothing was authored or the
	// authored workflow was never executed; a draft is never returned.
	Load(ctx context.Context) (*domain.Published, error)
}

// Watchable is implemented by sources that can push change notifications.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying workflow
	// may have changed. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// VersionEvent reports the currently published version.
// A nil Version means nothing is published anymore.
type VersionEvent struct {
	Version *domain.GraphVersion
}

// VersionWatcher emits an event every time the published version changes.
// The engine does not know whether it is backed by polling or push.
type VersionWatcher interface {
	Watch(ctx context.Context) (<-chan VersionEvent, error)
}
