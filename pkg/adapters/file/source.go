package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/auraflow/internal/compiler"
	"github.com/aretw0/auraflow/pkg/domain"
)

// Source implements ports.WorkflowSource and ports.Watchable over a single
// JSON or YAML document. The file existing means the workflow is published;
// its modification time is the publication time.
type Source struct {
	Path   string
	parser *compiler.Parser

	mu      sync.Mutex
	cached  *domain.Published
	modTime time.Time
	size    int64
}

// NewSource creates a source for the document at path.
func NewSource(path string) *Source {
	return &Source{Path: path, parser: compiler.NewParser()}
}

// Load compiles the document. The compiled graph is reused until the file's
// modification time or size changes.
func (s *Source) Load(ctx context.Context) (*domain.Published, error) {
	info, err := os.Stat(s.Path)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotPublished().WithDetail("path", s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat workflow: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}
	g, err := s.parser.Parse(data, compiler.FormatFromPath(s.Path))
	if err != nil {
		return nil, err
	}
	s.cached = &domain.Published{Graph: g, Version: domain.NewGraphVersion(g, info.ModTime())}
	s.modTime, s.size = info.ModTime(), info.Size()
	return s.cached, nil
}

// Watch signals writes, renames and removals of the document. The parent
// directory is watched so editors that replace the file are still seen.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	abs, err := filepath.Abs(s.Path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs || (evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write)) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}
