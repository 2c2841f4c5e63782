package ports

import (
	"context"

	"github.com/aretw0/auraflow/pkg/domain"
)

// ConversationStore persists one Conversation per session id.
// Any backing medium satisfies it as long as a saved conversation loads back
// with identical state, transcript and last-seen version.
type ConversationStore interface {
	// Save persists the conversation for a given session ID.
	Save(ctx context.Context, sessionID string, conv *domain.Conversation) error

	// Load retrieves the conversation for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Conversation, error)

	// Delete removes the conversation. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of every stored session.
	List(ctx context.Context) ([]string, error)
}
