package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
)

// Mask replaces every PII match.
const Mask = "***"

// DefaultPIIPatterns cover e-mail addresses, CPF numbers and Brazilian phones.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`,
	`\(?\b\d{2}\)?\s?9?\d{4}-?\d{4}\b`,
}

type piiMiddleware struct {
	next     ports.ConversationStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks matches of the patterns in
// user-authored transcript entries before they are persisted.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ConversationStore) ports.ConversationStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

// CompilePatterns validates pattern strings ahead of NewPIIMiddleware.
func CompilePatterns(patternStrings []string) error {
	for _, p := range patternStrings {
		if _, err := regexp.Compile(p); err != nil {
			return err
		}
	}
	return nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, conv *domain.Conversation) error {
	// Clone to avoid side effects on the conversation the engine keeps using.
	masked := conv.Clone()
	for i, e := range masked.Transcript {
		if e.Role != domain.RoleUser {
			continue
		}
		masked.Transcript[i].Content = m.mask(e.Content)
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
