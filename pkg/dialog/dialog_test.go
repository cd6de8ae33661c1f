package dialog_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/dialog"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnContext_EnterStepAndEnd(t *testing.T) {
	var steps []domain.StepEvent
	var ends []domain.DialogEvent
	hooks := domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) { steps = append(steps, *e) },
		OnDialogEnd: func(_ context.Context, e *domain.DialogEvent) { ends = append(ends, *e) },
	}

	state := domain.NewConversationState("c1")
	state.DialogStack.Push(domain.DialogFrame{DialogID: "shopping", Step: domain.StepAskAction})
	tc := dialog.NewTurnContext(state, "hi", nil, hooks)
	require.NotNil(t, tc.Logger)

	tc.EnterStep(context.Background(), "shopping", domain.StepAskItem)
	assert.Equal(t, domain.StepAskItem, state.DialogStack[0].Step)
	require.Len(t, steps, 1)
	assert.Equal(t, "c1", steps[0].ConversationID)
	assert.Equal(t, domain.EventStepEnter, steps[0].Type)

	tc.EndDialog(context.Background(), domain.DialogCompleted)
	assert.Empty(t, state.DialogStack)
	require.Len(t, ends, 1)
	assert.Equal(t, domain.DialogCompleted, ends[0].Reason)

	// Nothing left to end.
	tc.EndDialog(context.Background(), domain.DialogCompleted)
	assert.Len(t, ends, 1)
}

func TestTurnContext_CancelAll(t *testing.T) {
	var reasons []domain.DialogEndReason
	var ended []string
	var stackAtEnd []int
	var state *domain.ConversationState
	hooks := domain.LifecycleHooks{
		OnDialogEnd: func(_ context.Context, e *domain.DialogEvent) {
			reasons = append(reasons, e.Reason)
			ended = append(ended, e.DialogID)
			stackAtEnd = append(stackAtEnd, len(state.DialogStack))
		},
	}
	state = domain.NewConversationState("c1")
	state.DialogStack.Push(domain.DialogFrame{DialogID: "a"})
	state.DialogStack.Push(domain.DialogFrame{DialogID: "b"})

	tc := dialog.NewTurnContext(state, "", nil, hooks)
	tc.CancelAll(context.Background())
	assert.Empty(t, state.DialogStack)
	assert.Equal(t, []domain.DialogEndReason{domain.DialogCancelled, domain.DialogCancelled}, reasons)
	assert.Equal(t, []string{"b", "a"}, ended)
	assert.Equal(t, []int{0, 0}, stackAtEnd, "hooks observe the already cleared stack")

	tc.CancelAll(context.Background())
	assert.Len(t, reasons, 2)
}

func TestTurnContext_Send(t *testing.T) {
	tc := dialog.NewTurnContext(domain.NewConversationState("c1"), "", nil, domain.LifecycleHooks{})
	tc.Send(domain.NewTextActivity("one"))
	tc.Send(domain.NewOptionsActivity("two", []domain.Option{{Title: "A", Payload: "a"}}))
	require.Len(t, tc.Activities(), 2)
	assert.Equal(t, domain.ActivityText, tc.Activities()[0].Type)
	assert.Equal(t, domain.ActivityOptions, tc.Activities()[1].Type)
}
