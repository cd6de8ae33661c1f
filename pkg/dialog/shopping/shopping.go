// Package shopping implements the shopping sub-dialog: a three step flow
// (AskAction -> AskItem -> ProvideAnswer) that fills the action and item slots,
// skipping any prompt whose slot is already known.
package shopping

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/dialog"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

// Dialog is the shopping flow. It holds no per-conversation state; everything
// lives in the TurnContext's ConversationState.
type Dialog struct {
	registry *registry.Registry
}

var _ dialog.Dialog = (*Dialog)(nil)

// New creates the shopping dialog.
func New(reg *registry.Registry) (*Dialog, error) {
	if reg == nil {
		return nil, dialog.ErrMissingRegistry
	}
	return &Dialog{registry: reg}, nil
}

// ID returns domain.DialogShopping.
func (d *Dialog) ID() string {
	return domain.DialogShopping
}

// outcome is what a step decided: move on to next with result, or suspend awaiting a reply.
type outcome struct {
	next    domain.Step
	result  string
	suspend bool
}

// Begin pushes a shopping frame and enters AskAction.
func (d *Dialog) Begin(ctx context.Context, tc *dialog.TurnContext) error {
	tc.State.DialogStack.Push(domain.DialogFrame{
		DialogID: d.ID(),
		Step:     domain.StepAskAction,
	})
	return d.run(ctx, tc, domain.StepAskAction, "")
}

// Continue validates tc.Text against the prompt the frame is suspended at.
// An invalid reply re-prompts in place; a valid one advances to the next step.
func (d *Dialog) Continue(ctx context.Context, tc *dialog.TurnContext) error {
	frame, ok := tc.State.DialogStack.Active()
	if !ok || frame.DialogID != d.ID() {
		return d.Begin(ctx, tc)
	}

	switch frame.Step {
	case domain.StepAskAction:
		action, ok := dialog.Validate(tc.Text, d.registry.Actions())
		if !ok {
			tc.Logger.Debug("invalid action reply", "text", tc.Text)
			tc.Send(domain.NewOptionsActivity(d.registry.Prompts().ActionInvalid, d.registry.ActionChoices()))
			return nil
		}
		return d.run(ctx, tc, domain.StepAskItem, action)

	case domain.StepAskItem:
		item, ok := dialog.Validate(tc.Text, d.registry.Items())
		if !ok {
			tc.Logger.Debug("invalid item reply", "text", tc.Text)
			tc.Send(domain.NewOptionsActivity(d.registry.Prompts().ItemInvalid, d.registry.ItemChoices()))
			return nil
		}
		tc.State.Slots.Item = item
		return d.run(ctx, tc, domain.StepProvideAnswer, item)

	default:
		return fmt.Errorf("%w: %s", dialog.ErrUnknownStep, frame.Step)
	}
}

// run executes steps synchronously until one suspends or the dialog ends.
func (d *Dialog) run(ctx context.Context, tc *dialog.TurnContext, step domain.Step, result string) error {
	for {
		tc.EnterStep(ctx, d.ID(), step)

		var out outcome
		var err error
		switch step {
		case domain.StepAskAction:
			out = d.askAction(tc)
		case domain.StepAskItem:
			out, err = d.askItem(tc, result)
		case domain.StepProvideAnswer:
			return d.provideAnswer(ctx, tc, result)
		default:
			return fmt.Errorf("%w: %s", dialog.ErrUnknownStep, step)
		}
		if err != nil {
			return err
		}
		if out.suspend {
			return nil
		}
		step, result = out.next, out.result
	}
}

func (d *Dialog) askAction(tc *dialog.TurnContext) outcome {
	slots := tc.State.Slots
	tc.Logger.Debug("ask action step", "intent", slots.Intent, "action", slots.Action, "item", slots.Item)

	if slots.Intent != "" || slots.Action != "" {
		return outcome{next: domain.StepAskItem}
	}

	tc.Send(domain.NewOptionsActivity(d.registry.Prompts().Action, d.registry.ActionChoices()))
	return outcome{suspend: true}
}

func (d *Dialog) askItem(tc *dialog.TurnContext, result string) (outcome, error) {
	// Records the action prompt that was just answered, not the item prompt about to be shown.
	tc.State.LastOptionList = domain.OptionList{
		DialogID: d.ID(),
		PromptID: domain.PromptAction,
		Options:  d.registry.ActionChoices(),
	}

	slots := &tc.State.Slots
	if slots.Intent != "" {
		return outcome{next: domain.StepProvideAnswer}, nil
	}

	source := result
	if slots.Action != "" {
		source = slots.Action
	}
	action, ok := dialog.Validate(source, d.registry.Actions())
	if !ok {
		return outcome{}, fmt.Errorf("%w: %q", dialog.ErrUnknownAction, source)
	}
	slots.Action = action

	tc.Logger.Debug("ask item step", "intent", slots.Intent, "action", slots.Action, "item", slots.Item)

	switch action {
	case registry.ActionBuy, registry.ActionChange:
		if slots.Item != "" {
			return outcome{next: domain.StepProvideAnswer}, nil
		}
		text := d.registry.Prompts().ItemBuy
		if action == registry.ActionChange {
			text = d.registry.Prompts().ItemChange
		}
		tc.Send(domain.NewOptionsActivity(text, d.registry.ItemChoices()))
		return outcome{suspend: true}, nil

	case registry.ActionRetrieve, registry.ActionSell:
		return outcome{next: domain.StepProvideAnswer}, nil

	default:
		return outcome{}, fmt.Errorf("%w: %q", dialog.ErrUnknownAction, action)
	}
}

func (d *Dialog) provideAnswer(ctx context.Context, tc *dialog.TurnContext, result string) error {
	slots := tc.State.Slots
	tc.State.LastOptionList = domain.OptionList{
		DialogID: d.ID(),
		PromptID: domain.PromptItem,
		Slots:    domain.ShoppingSlots{Action: slots.Action},
		Options:  d.registry.ItemChoices(),
	}

	item := slots.Item
	if item == "" {
		item = result
	}
	tc.Logger.Debug("provide answer step", "intent", slots.Intent, "action", slots.Action, "item", item)

	text, err := d.answer(tc, slots.Intent, slots.Action, item)
	if err != nil {
		return err
	}
	tc.Send(domain.NewTextActivity(text))

	tc.State.Slots = domain.ShoppingSlots{}
	tc.EndDialog(ctx, domain.DialogCompleted)
	return nil
}

// answer resolves the final text: intent first, then the (action, item) pair.
func (d *Dialog) answer(tc *dialog.TurnContext, intent, action, item string) (string, error) {
	if intent != "" {
		if text, ok := d.registry.IntentAnswer(intent); ok {
			return text, nil
		}
		tc.Logger.Warn("no answer for intent", "intent", intent)
		return d.registry.FallbackAnswer(), nil
	}

	switch action {
	case registry.ActionBuy, registry.ActionChange:
		if !d.registry.IsItem(item) {
			tc.Logger.Warn("no answer for item", "action", action, "item", item)
			return d.registry.FallbackAnswer(), nil
		}
		return d.registry.ActionItemAnswer(action, item), nil
	case registry.ActionRetrieve:
		return d.registry.RetrieveAnswer(), nil
	case registry.ActionSell:
		return d.registry.SellAnswer(), nil
	default:
		return "", fmt.Errorf("%w: %q", dialog.ErrUnknownAction, action)
	}
}
