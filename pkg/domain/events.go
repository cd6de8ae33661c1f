package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart EventType = "turn_start"
	EventTurnEnd   EventType = "turn_end"
	EventStepEnter EventType = "step_enter"
	EventDialogEnd EventType = "dialog_end"
)

// DialogEndReason explains why a sub-dialog frame left the stack.
type DialogEndReason string

const (
	DialogCompleted DialogEndReason = "completed"
	DialogCancelled DialogEndReason = "cancelled"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
}

// TurnEvent is emitted around every processed turn.
// Branch, Duration and Err are only set on EventTurnEnd.
type TurnEvent struct {
	EventBase
	Branch   Branch        `json:"branch,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// StepEvent is emitted every time a sub-dialog step runs.
type StepEvent struct {
	EventBase
	DialogID string `json:"dialog_id"`
	Step     Step   `json:"step"`
}

// DialogEvent is emitted when a sub-dialog frame is popped.
type DialogEvent struct {
	EventBase
	DialogID string          `json:"dialog_id"`
	Reason   DialogEndReason `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurnStart func(context.Context, *TurnEvent)
	OnTurnEnd   func(context.Context, *TurnEvent)
	OnStepEnter func(context.Context, *StepEvent)
	OnDialogEnd func(context.Context, *DialogEvent)
}

// NewEventBase stamps an event for the given conversation.
func NewEventBase(t EventType, conversationID string) EventBase {
	return EventBase{
		Timestamp:      time.Now(),
		Type:           t,
		ConversationID: conversationID,
	}
}
