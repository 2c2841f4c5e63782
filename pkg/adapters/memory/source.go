package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/auraflow/pkg/domain"
)

// Source implements ports.WorkflowSource and ports.Watchable in memory.
// The operator's "save" and "execute" steps collapse into Publish.
type Source struct {
	mu        sync.RWMutex
	published *domain.Published
	subs      map[chan struct{}]struct{}
	now       func() time.Time
}

// NewSource creates an empty source: Load reports NotPublished until Publish.
func NewSource() *Source {
	return &Source{
		subs: make(map[chan struct{}]struct{}),
		now:  time.Now,
	}
}

// Publish makes g the runnable workflow, stamped with the current time.
func (s *Source) Publish(g *domain.WorkflowGraph) domain.GraphVersion {
	return s.PublishAt(g, s.now())
}

// PublishAt makes g the runnable workflow, stamped with at.
func (s *Source) PublishAt(g *domain.WorkflowGraph, at time.Time) domain.GraphVersion {
	v := domain.NewGraphVersion(g, at)
	s.mu.Lock()
	s.published = &domain.Published{Graph: g, Version: v}
	s.mu.Unlock()
	s.notify()
	return v
}

// Unpublish withdraws the runnable workflow.
func (s *Source) Unpublish() {
	s.mu.Lock()
	s.published = nil
	s.mu.Unlock()
	s.notify()
}

// Load returns the published workflow.
func (s *Source) Load(ctx context.Context) (*domain.Published, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.published == nil {
		return nil, domain.ErrNotPublished()
	}
	p := *s.published
	return &p, nil
}

// Watch signals after every Publish or Unpublish.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

func (s *Source) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
