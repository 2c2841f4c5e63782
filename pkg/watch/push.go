package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/pkg/ports"
)

// WatchableSource is a source that can notify changes.
type WatchableSource interface {
	ports.WorkflowSource
	ports.Watchable
}

// Push turns change notifications into version events.
type Push struct {
	source WatchableSource
	logger *slog.Logger
}

// NewPush creates a push watcher over source.
func NewPush(source WatchableSource, logger *slog.Logger) *Push {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Push{source: source, logger: logger}
}

// Watch re-loads the source on every notification and emits only real changes.
func (p *Push) Watch(ctx context.Context) (<-chan ports.VersionEvent, error) {
	signals, err := p.source.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to watch source: %w", err)
	}

	t := &tracker{source: p.source, logger: p.logger}
	t.observe(ctx)

	out := make(chan ports.VersionEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				ev, changed := t.observe(ctx)
				if changed && !emit(ctx, out, ev) {
					return
				}
			}
		}
	}()
	return out, nil
}
