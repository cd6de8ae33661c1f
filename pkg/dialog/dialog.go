package dialog

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// Dialog is a sub-dialog the router can begin and resume.
type Dialog interface {
	// ID is the identifier stored in DialogFrame.DialogID.
	ID() string

	// Begin pushes a new frame and runs the dialog from its first step.
	Begin(ctx context.Context, tc *TurnContext) error

	// Continue feeds tc.Text to the step the active frame is suspended at.
	Continue(ctx context.Context, tc *TurnContext) error
}

// TurnContext carries one turn through the router and the active dialog.
type TurnContext struct {
	State  *domain.ConversationState
	Text   string
	Logger *slog.Logger

	hooks      domain.LifecycleHooks
	activities []domain.Activity
}

// NewTurnContext creates the context for a single turn.
func NewTurnContext(state *domain.ConversationState, text string, logger *slog.Logger, hooks domain.LifecycleHooks) *TurnContext {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TurnContext{
		State:  state,
		Text:   text,
		Logger: logger,
		hooks:  hooks,
	}
}

// Send queues an outbound activity.
func (tc *TurnContext) Send(a domain.Activity) {
	tc.activities = append(tc.activities, a)
}

// Activities returns everything queued so far.
func (tc *TurnContext) Activities() []domain.Activity {
	return tc.activities
}

// EnterStep records the step on the active frame and fires OnStepEnter.
func (tc *TurnContext) EnterStep(ctx context.Context, dialogID string, step domain.Step) {
	tc.State.DialogStack.SetStep(step)
	if tc.hooks.OnStepEnter != nil {
		tc.hooks.OnStepEnter(ctx, &domain.StepEvent{
			EventBase: domain.NewEventBase(domain.EventStepEnter, tc.State.ConversationID),
			DialogID:  dialogID,
			Step:      step,
		})
	}
}

// EndDialog pops the active frame and fires OnDialogEnd.
func (tc *TurnContext) EndDialog(ctx context.Context, reason domain.DialogEndReason) {
	frame, ok := tc.State.DialogStack.Active()
	if !ok {
		return
	}
	tc.State.DialogStack.Pop()
	tc.dialogEnded(ctx, frame.DialogID, reason)
}

// CancelAll clears the stack, then fires OnDialogEnd for each frame from the top down.
func (tc *TurnContext) CancelAll(ctx context.Context) {
	frames := tc.State.DialogStack
	tc.State.DialogStack.Clear()
	for i := len(frames) - 1; i >= 0; i-- {
		tc.dialogEnded(ctx, frames[i].DialogID, domain.DialogCancelled)
	}
}

func (tc *TurnContext) dialogEnded(ctx context.Context, dialogID string, reason domain.DialogEndReason) {
	if tc.hooks.OnDialogEnd == nil {
		return
	}
	tc.hooks.OnDialogEnd(ctx, &domain.DialogEvent{
		EventBase: domain.NewEventBase(domain.EventDialogEnd, tc.State.ConversationID),
		DialogID:  dialogID,
		Reason:    reason,
	})
}
