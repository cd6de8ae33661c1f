package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	conversationID := fmt.Sprintf("contract-test-%d", time.Now().UnixNano())

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewConversationState(conversationID)
		state.DialogStack.Push(domain.DialogFrame{DialogID: domain.DialogShopping, Step: domain.StepAskItem})
		state.Slots = domain.ShoppingSlots{Action: "buy"}
		state.LastOptionList = domain.OptionList{
			DialogID: domain.DialogShopping,
			PromptID: domain.PromptAction,
			Options:  []domain.Option{{Title: "Buy", Payload: "buy"}},
		}
		state.Turns = 2

		require.NoError(t, store.Save(ctx, conversationID, state), "Save should not return error")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state, loaded)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		state := domain.NewConversationState(conversationID)
		require.NoError(t, store.Save(ctx, conversationID, state))

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		assert.Empty(t, loaded.DialogStack)
		assert.True(t, loaded.Slots.IsEmpty())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, conversationID, domain.NewConversationState(conversationID)))

		require.NoError(t, store.Delete(ctx, conversationID), "Delete should not return error")

		_, err := store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")

		assert.NoError(t, store.Delete(ctx, conversationID), "Delete of a missing conversation is a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewConversationState(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewConversationState(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
