package middleware_test

import (
	"context"

	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Conversation
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Conversation),
	}
}

func (s *MockStore) Save(ctx context.Context, sessionID string, conv *domain.Conversation) error {
	s.data[sessionID] = conv.Clone()
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	conv, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return conv.Clone(), nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.ConversationStore = (*MockStore)(nil)

func conversation(sessionID string, entries ...domain.Entry) *domain.Conversation {
	conv := domain.NewConversation(sessionID)
	conv.State.CurrentNodeID = "n1"
	conv.Transcript = append(conv.Transcript, entries...)
	return conv
}

func userSays(id, text string) domain.Entry {
	return domain.Entry{ID: id, Role: domain.RoleUser, Content: text}
}

func botSays(id, text string) domain.Entry {
	return domain.Entry{ID: id, Role: domain.RoleAssistant, Content: text}
}
