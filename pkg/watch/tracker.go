package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
)

// tracker remembers the last observed version of a source.
type tracker struct {
	source ports.WorkflowSource
	logger *slog.Logger

	mu   sync.Mutex
	last *domain.GraphVersion
}

// observe loads the source and reports whether the version moved.
// Broken documents and infrastructure failures are not versions: they are
// logged and the last known version is kept.
func (t *tracker) observe(ctx context.Context) (ports.VersionEvent, bool) {
	var cur *domain.GraphVersion
	p, err := t.source.Load(ctx)
	switch {
	case err == nil:
		v := p.Version
		cur = &v
	case domain.IsNotPublished(err):
	default:
		t.logger.Warn("workflow check failed", "err", err)
		return ports.VersionEvent{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if domain.SameVersion(t.last, cur) {
		return ports.VersionEvent{}, false
	}
	t.last = cur
	return ports.VersionEvent{Version: cur}, true
}

func emit(ctx context.Context, out chan<- ports.VersionEvent, ev ports.VersionEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
