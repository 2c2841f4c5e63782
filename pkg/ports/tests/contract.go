package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
)

// SampleConversation returns a mid-sale conversation exercising every persisted field.
func SampleConversation(sessionID string) *domain.Conversation {
	v := domain.GraphVersion{
		NodeCount: 3,
		EdgeCount: 2,
		NodeIDs:   []string{"menu", "sale", "start-node"},
		LoadedAt:  time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	return &domain.Conversation{
		SessionID: sessionID,
		State: domain.ConversationState{
			CurrentNodeID:       "sale",
			AwaitingInput:       true,
			ActiveOptions:       []domain.Option{{ID: "o1", Text: "Vendas"}, {ID: "o2", Text: "Suporte"}},
			ActiveOptionsPrompt: "Como posso ajudar?",
			SubState: &domain.SaleState{
				Stage:  domain.StageSelection,
				NodeID: "sale",
				Items:  []domain.InventoryItem{{ID: "p1", Name: "Pastilha", UnitPrice: 50, StockQuantity: 3}},
			},
		},
		Transcript: []domain.Entry{
			{ID: "e1", Role: domain.RoleUser, Content: "oi", CreatedAt: v.LoadedAt},
			{ID: "e2", Role: domain.RoleAssistant, Content: "Olá", CreatedAt: v.LoadedAt},
		},
		LastSeen:  &v,
		UpdatedAt: v.LoadedAt,
	}
}

// RunConversationStoreContract verifies that an adapter complies with ports.ConversationStore.
func RunConversationStoreContract(t *testing.T, store ports.ConversationStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		conv := SampleConversation(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, conv))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, conv.State, loaded.State)
		assert.Equal(t, len(conv.Transcript), len(loaded.Transcript))
		for i := range conv.Transcript {
			assert.Equal(t, conv.Transcript[i].ID, loaded.Transcript[i].ID)
			assert.Equal(t, conv.Transcript[i].Content, loaded.Transcript[i].Content)
			assert.Equal(t, conv.Transcript[i].Role, loaded.Transcript[i].Role)
		}
		require.NotNil(t, loaded.LastSeen)
		assert.True(t, conv.LastSeen.Equal(*loaded.LastSeen))
	})

	t.Run("Overwrite", func(t *testing.T) {
		conv := SampleConversation(sessionID)
		conv.State = domain.ConversationState{}
		require.NoError(t, store.Save(ctx, sessionID, conv))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, loaded.State.Idle())
		assert.Nil(t, loaded.State.SubState)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, SampleConversation(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := sessionID+"-1", sessionID+"-2"
		require.NoError(t, store.Save(ctx, id1, SampleConversation(id1)))
		require.NoError(t, store.Save(ctx, id2, SampleConversation(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
