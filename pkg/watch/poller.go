package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/pkg/ports"
)

// DefaultSpec polls every three seconds, like the chat widget.
const DefaultSpec = "@every 3s"

// Poller checks the source on a cron schedule.
type Poller struct {
	source   ports.WorkflowSource
	spec     string
	schedule cron.Schedule
	logger   *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithSpec sets the cron spec ("@every 10s", "*/1 * * * *", ...).
func WithSpec(spec string) PollerOption {
	return func(p *Poller) { p.spec = spec }
}

// WithSchedule sets the schedule directly, overriding the cron expression.
func WithSchedule(s cron.Schedule) PollerOption {
	return func(p *Poller) { p.schedule = s }
}

// WithLogger configures a logger.
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller creates a polling watcher over source.
func NewPoller(source ports.WorkflowSource, opts ...PollerOption) *Poller {
	p := &Poller{source: source, spec: DefaultSpec, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseSpec validates a poll spec.
func ParseSpec(spec string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid poll spec %q: %w", spec, err)
	}
	return s, nil
}

// Watch takes a first observation, then emits an event whenever a scheduled
// check sees a different version. The channel closes when ctx is done.
func (p *Poller) Watch(ctx context.Context) (<-chan ports.VersionEvent, error) {
	schedule := p.schedule
	if schedule == nil {
		s, err := ParseSpec(p.spec)
		if err != nil {
			return nil, err
		}
		schedule = s
	}

	t := &tracker{source: p.source, logger: p.logger}
	t.observe(ctx)

	out := make(chan ports.VersionEvent)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		if ev, changed := t.observe(ctx); changed {
			emit(ctx, out, ev)
		}
	}))
	c.Start()

	go func() {
		<-ctx.Done()
		// Wait for a running check before closing its channel.
		<-c.Stop().Done()
		close(out)
	}()
	return out, nil
}
