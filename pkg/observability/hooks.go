package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event at Debug, and failed turns at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start", "conversation_id", e.ConversationID)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "turn_end",
					"conversation_id", e.ConversationID,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "turn_end",
				"conversation_id", e.ConversationID,
				"branch", e.Branch,
				"duration", e.Duration,
			)
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter",
				"conversation_id", e.ConversationID,
				"dialog_id", e.DialogID,
				"step", e.Step,
			)
		},
		OnDialogEnd: func(ctx context.Context, e *domain.DialogEvent) {
			logger.DebugContext(ctx, "dialog_end",
				"conversation_id", e.ConversationID,
				"dialog_id", e.DialogID,
				"reason", e.Reason,
			)
		},
	}
}

// MergeHooks fans every event out to each set of hooks, in order.
func MergeHooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var merged domain.LifecycleHooks
	for _, h := range all {
		h := h
		if h.OnTurnStart != nil {
			prev := merged.OnTurnStart
			merged.OnTurnStart = func(ctx context.Context, e *domain.TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTurnStart(ctx, e)
			}
		}
		if h.OnTurnEnd != nil {
			prev := merged.OnTurnEnd
			merged.OnTurnEnd = func(ctx context.Context, e *domain.TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTurnEnd(ctx, e)
			}
		}
		if h.OnStepEnter != nil {
			prev := merged.OnStepEnter
			merged.OnStepEnter = func(ctx context.Context, e *domain.StepEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStepEnter(ctx, e)
			}
		}
		if h.OnDialogEnd != nil {
			prev := merged.OnDialogEnd
			merged.OnDialogEnd = func(ctx context.Context, e *domain.DialogEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnDialogEnd(ctx, e)
			}
		}
	}
	return merged
}
