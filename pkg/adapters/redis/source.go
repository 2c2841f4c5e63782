package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/auraflow/internal/compiler"
	"github.com/aretw0/auraflow/pkg/domain"
)

// Source implements ports.WorkflowSource and ports.Watchable over the keys
// the editor writes: the draft under "workflow", the executed copy under
// "executedFlow" and its publication time under "published_at".
// Every change is announced on the "events" channel.
type Source struct {
	client *backend.Client
	prefix string
	parser *compiler.Parser
	now    func() time.Time

	mu        sync.Mutex
	cached    *domain.Published
	cachedKey string // published_at of cached
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithSourcePrefix sets the key prefix of the workflow keys.
func WithSourcePrefix(prefix string) SourceOption {
	return func(s *Source) { s.prefix = prefix }
}

// NewSource creates a workflow source over an existing client.
func NewSource(client *backend.Client, opts ...SourceOption) *Source {
	s := &Source{
		client: client,
		prefix: DefaultPrefix,
		parser: compiler.NewParser(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) draftKey() string     { return s.prefix + "workflow" }
func (s *Source) executedKey() string  { return s.prefix + "executedFlow" }
func (s *Source) publishedKey() string { return s.prefix + "published_at" }
func (s *Source) channel() string      { return s.prefix + "events" }

// SaveDraft stores the editor document without publishing it.
func (s *Source) SaveDraft(ctx context.Context, document []byte) error {
	if err := s.client.Set(ctx, s.draftKey(), document, 0).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Execute publishes the saved draft.
func (s *Source) Execute(ctx context.Context) error {
	draft, err := s.client.Get(ctx, s.draftKey()).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.ErrNotPublished().WithDetail("reason", "no draft saved")
	}
	if err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}
	return s.Publish(ctx, draft)
}

// Publish stores document as both draft and executed workflow.
func (s *Source) Publish(ctx context.Context, document []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.draftKey(), document, 0)
	pipe.Set(ctx, s.executedKey(), document, 0)
	pipe.Set(ctx, s.publishedKey(), s.now().UTC().Format(time.RFC3339Nano), 0)
	pipe.Publish(ctx, s.channel(), "published")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish workflow: %w", err)
	}
	return nil
}

// Unpublish withdraws the executed workflow. The draft is kept.
func (s *Source) Unpublish(ctx context.Context) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.executedKey(), s.publishedKey())
	pipe.Publish(ctx, s.channel(), "unpublished")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to unpublish workflow: %w", err)
	}
	return nil
}

// Load returns the executed workflow. The compiled graph is reused while
// published_at is unchanged, so a poll costs one GET.
func (s *Source) Load(ctx context.Context) (*domain.Published, error) {
	stamp, err := s.client.Get(ctx, s.publishedKey()).Result()
	if err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}
	if p := s.cachedFor(stamp); p != nil {
		return p, nil
	}

	vals, err := s.client.MGet(ctx, s.executedKey(), s.publishedKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}
	document, ok := vals[0].(string)
	if !ok || document == "" {
		return nil, domain.ErrNotPublished()
	}

	g, err := s.parser.Parse([]byte(document), compiler.FormatJSON)
	if err != nil {
		return nil, err
	}

	var loadedAt time.Time
	raw, _ := vals[1].(string)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		loadedAt = t
	}
	p := &domain.Published{Graph: g, Version: domain.NewGraphVersion(g, loadedAt)}
	s.remember(raw, p)
	return p, nil
}

func (s *Source) cachedFor(stamp string) *domain.Published {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stamp == "" || stamp != s.cachedKey {
		return nil
	}
	return s.cached
}

// remember caches p under its publication stamp. Documents written without
// a stamp are never cached.
func (s *Source) remember(stamp string, p *domain.Published) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stamp == "" {
		s.cached, s.cachedKey = nil, ""
		return
	}
	s.cached, s.cachedKey = p, stamp
}

// Watch signals every publish and unpublish announced on the events channel.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	// Wait for the subscription confirmation so no event is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to workflow events: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
