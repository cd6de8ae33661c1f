// Package runtime decides, for every incoming turn, which of three branches
// handles it: a card reply, the shopping dialog, or a reset to the top-level menu.
package runtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/dialog"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

// ErrMissingDialog is returned when the router is built without the shopping dialog.
var ErrMissingDialog = errors.New("shopping dialog is required")

// Router is the per-turn dispatcher. It is stateless; all state is in the TurnContext.
type Router struct {
	registry *registry.Registry
	shopping dialog.Dialog
	logger   *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger used for routing decisions.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a router over the given registry and shopping dialog.
func NewRouter(reg *registry.Registry, shopping dialog.Dialog, opts ...RouterOption) (*Router, error) {
	if reg == nil {
		return nil, dialog.ErrMissingRegistry
	}
	if shopping == nil {
		return nil, ErrMissingDialog
	}
	r := &Router{
		registry: reg,
		shopping: shopping,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Route handles one turn and reports which branch took it.
// A card reply takes priority over a shopping trigger.
func (r *Router) Route(ctx context.Context, tc *dialog.TurnContext) (domain.Branch, error) {
	state := tc.State
	intent, entity := r.registry.Lookup(tc.Text)

	switch {
	case len(state.LastOptionList.Options) > 0 && state.LastOptionList.HasPayload(tc.Text):
		r.logger.DebugContext(ctx, "routing card reply", "prompt_id", state.LastOptionList.PromptID, "text", tc.Text)
		return domain.BranchCardReply, r.cardReply(ctx, tc)

	case r.registry.IsShoppingTrigger(tc.Text):
		r.logger.DebugContext(ctx, "routing shopping", "intent", intent, "entity", entity)
		return domain.BranchShopping, r.continueShopping(ctx, tc, intent, entity)

	default:
		r.logger.DebugContext(ctx, "routing reset", "text", tc.Text)
		r.reset(ctx, tc)
		return domain.BranchReset, nil
	}
}

// Greet emits the top-level menu for a conversation that was just opened.
func (r *Router) Greet(ctx context.Context, tc *dialog.TurnContext) domain.Branch {
	r.logger.DebugContext(ctx, "greeting")
	tc.Send(r.rootMenu())
	return domain.BranchGreeting
}

// cardReply restarts the shopping dialog from the option list the text was picked from.
func (r *Router) cardReply(ctx context.Context, tc *dialog.TurnContext) error {
	list := tc.State.LastOptionList
	tc.CancelAll(ctx)

	var slots domain.ShoppingSlots
	switch list.PromptID {
	case domain.PromptAction:
		slots = list.Slots
		slots.Action = tc.Text
	case domain.PromptItem:
		slots = list.Slots
		slots.Item = tc.Text
	}
	tc.State.Slots = slots

	return r.shopping.Begin(ctx, tc)
}

func (r *Router) continueShopping(ctx context.Context, tc *dialog.TurnContext, intent, entity string) error {
	slots := &tc.State.Slots
	slots.Intent = intent
	switch {
	case r.registry.IsAction(entity):
		slots.Action = entity
	case r.registry.IsItem(entity):
		slots.Item = entity
	}

	if tc.State.DialogStack.IsActive(r.shopping.ID()) {
		return r.shopping.Continue(ctx, tc)
	}
	return r.shopping.Begin(ctx, tc)
}

func (r *Router) reset(ctx context.Context, tc *dialog.TurnContext) {
	tc.CancelAll(ctx)
	tc.State.Slots = domain.ShoppingSlots{}
	tc.Send(r.rootMenu())
}

func (r *Router) rootMenu() domain.Activity {
	return domain.NewOptionsActivity(r.registry.Prompts().RootMenu, r.registry.RootMenu())
}
