package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateStore = (*memory.Store)(nil)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	state := domain.NewConversationState("c1")
	state.DialogStack.Push(domain.DialogFrame{DialogID: domain.DialogShopping, Step: domain.StepAskAction})
	require.NoError(t, store.Save(ctx, "c1", state))

	state.DialogStack.SetStep(domain.StepAskItem)
	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAskAction, loaded.DialogStack[0].Step)

	loaded.DialogStack.Clear()
	again, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, again.DialogStack, 1)
}

func TestMemoryStore_EmptyID(t *testing.T) {
	err := memory.NewStore().Save(context.Background(), "", domain.NewConversationState(""))
	assert.ErrorIs(t, err, domain.ErrEmptyConversationID)
}
