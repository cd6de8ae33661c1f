package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/dialog"
	"github.com/aretw0/parley/pkg/dialog/shopping"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	reg    *registry.Registry
	router *runtime.Router
	state  *domain.ConversationState
}

func newHarness(t *testing.T, reg *registry.Registry) *harness {
	t.Helper()
	if reg == nil {
		reg = registry.Default()
	}
	d, err := shopping.New(reg)
	require.NoError(t, err)
	r, err := runtime.NewRouter(reg, d)
	require.NoError(t, err)
	return &harness{t: t, reg: reg, router: r, state: domain.NewConversationState("conv-1")}
}

func (h *harness) send(text string) (domain.Branch, []domain.Activity) {
	h.t.Helper()
	tc := dialog.NewTurnContext(h.state, text, nil, domain.LifecycleHooks{})
	branch, err := h.router.Route(context.Background(), tc)
	require.NoError(h.t, err)
	return branch, tc.Activities()
}

func (h *harness) assertMenu(acts []domain.Activity) {
	h.t.Helper()
	require.Len(h.t, acts, 1)
	assert.Equal(h.t, domain.ActivityOptions, acts[0].Type)
	assert.Equal(h.t, h.reg.Prompts().RootMenu, acts[0].Text)
	assert.Equal(h.t, h.reg.RootMenu(), acts[0].Options)
}

func TestNewRouter_MissingCollaborators(t *testing.T) {
	d, err := shopping.New(registry.Default())
	require.NoError(t, err)

	_, err = runtime.NewRouter(nil, d)
	assert.ErrorIs(t, err, dialog.ErrMissingRegistry)

	_, err = runtime.NewRouter(registry.Default(), nil)
	assert.ErrorIs(t, err, runtime.ErrMissingDialog)
}

func TestScenario_BuyClothes(t *testing.T) {
	h := newHarness(t, nil)

	branch, acts := h.send("About shopping")
	assert.Equal(t, domain.BranchShopping, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.Prompts().Action, acts[0].Text)

	branch, acts = h.send("buy")
	assert.Equal(t, domain.BranchShopping, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.Prompts().ItemBuy, acts[0].Text)

	// "Clothes" is not in the recorded ACTION list, so it is a shopping trigger, not a card reply.
	branch, acts = h.send("Clothes")
	assert.Equal(t, domain.BranchShopping, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, "The ans of buy Clothes: .... (done! finished the dialog)", acts[0].Text)

	assert.True(t, h.state.Slots.IsEmpty())
	assert.Empty(t, h.state.DialogStack)
}

func TestScenario_Retrieve(t *testing.T) {
	h := newHarness(t, nil)

	h.send("About shopping")
	_, acts := h.send("retrieve")
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.RetrieveAnswer(), acts[0].Text)
	assert.Empty(t, h.state.DialogStack)
}

func TestScenario_Gibberish(t *testing.T) {
	h := newHarness(t, nil)

	branch, acts := h.send("gibberish")
	assert.Equal(t, domain.BranchReset, branch)
	h.assertMenu(acts)
	assert.Empty(t, h.state.DialogStack)
	assert.True(t, h.state.Slots.IsEmpty())
}

func TestReset_IsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.send("About shopping")
	h.send("buy")
	require.NotEmpty(t, h.state.DialogStack)

	_, first := h.send("what is this?")
	afterFirst := h.state.Clone()
	_, second := h.send("what is this?")

	h.assertMenu(first)
	assert.Equal(t, first, second)
	assert.Equal(t, afterFirst.DialogStack, h.state.DialogStack)
	assert.Equal(t, afterFirst.Slots, h.state.Slots)
	assert.True(t, h.state.Slots.IsEmpty())
	assert.Empty(t, h.state.DialogStack)
}

func TestReset_CaseSensitiveTrigger(t *testing.T) {
	h := newHarness(t, nil)
	branch, _ := h.send("About Shopping")
	assert.Equal(t, domain.BranchReset, branch)
}

func TestShopping_KnownActionSkipsAskAction(t *testing.T) {
	h := newHarness(t, nil)

	branch, acts := h.send("change")
	assert.Equal(t, domain.BranchShopping, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.Prompts().ItemChange, acts[0].Text)
	assert.Equal(t, registry.ActionChange, h.state.Slots.Action)
	assert.Equal(t, domain.StepAskItem, h.state.DialogStack[0].Step)
}

func TestShopping_SlotsPersistAcrossTurns(t *testing.T) {
	h := newHarness(t, nil)

	h.send("About shopping")

	// An item at the action prompt is remembered but does not answer the prompt.
	_, acts := h.send("Furniture")
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.Prompts().ActionInvalid, acts[0].Text)
	assert.Equal(t, registry.ItemFurniture, h.state.Slots.Item)

	_, acts = h.send("buy")
	require.Len(t, acts, 1)
	assert.Equal(t, "The ans of buy Furniture: .... (done! finished the dialog)", acts[0].Text)
}

func TestCardReply_ItemListAfterAnswer(t *testing.T) {
	h := newHarness(t, nil)
	h.send("About shopping")
	h.send("buy")
	h.send("Clothes")
	require.Equal(t, domain.PromptItem, h.state.LastOptionList.PromptID)

	branch, acts := h.send("Accessories")
	assert.Equal(t, domain.BranchCardReply, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, "The ans of buy Accessories: .... (done! finished the dialog)", acts[0].Text)
}

func TestCardReply_TakesPriorityOverTrigger(t *testing.T) {
	h := newHarness(t, nil)
	h.send("About shopping")
	h.send("buy")
	require.Equal(t, domain.PromptAction, h.state.LastOptionList.PromptID)
	require.Equal(t, domain.StepAskItem, h.state.DialogStack[0].Step)

	// "sell" is both a trigger and a payload of the recorded ACTION list.
	branch, acts := h.send("sell")
	assert.Equal(t, domain.BranchCardReply, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.SellAnswer(), acts[0].Text)
	assert.Empty(t, h.state.DialogStack)
}

func TestCardReply_StaleListDoesNotMatch(t *testing.T) {
	h := newHarness(t, nil)
	h.send("About shopping")
	h.send("buy")
	h.send("Clothes")
	require.Equal(t, domain.PromptItem, h.state.LastOptionList.PromptID)

	// "buy" was in the ACTION list recorded earlier, not in the current ITEM list.
	branch, acts := h.send("buy")
	assert.Equal(t, domain.BranchShopping, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.Prompts().ItemBuy, acts[0].Text)
}

func TestCardReply_UnknownPromptStartsEmpty(t *testing.T) {
	h := newHarness(t, nil)
	h.state.LastOptionList = domain.OptionList{
		DialogID: domain.DialogShopping,
		PromptID: "SOMETHING_ELSE",
		Slots:    domain.ShoppingSlots{Action: registry.ActionBuy},
		Options:  []domain.Option{{Title: "Pick", Payload: "pick"}},
	}
	h.state.Slots.Item = registry.ItemClothes

	branch, acts := h.send("pick")
	assert.Equal(t, domain.BranchCardReply, branch)
	require.Len(t, acts, 1)
	assert.Equal(t, h.reg.Prompts().Action, acts[0].Text)
	assert.True(t, h.state.Slots.IsEmpty())
}

func TestCardReply_RequiresPromptID(t *testing.T) {
	h := newHarness(t, nil)
	h.state.LastOptionList = domain.OptionList{
		Options: []domain.Option{{Title: "Pick", Payload: "pick"}},
	}
	branch, _ := h.send("pick")
	assert.Equal(t, domain.BranchReset, branch)
}

func TestShopping_IntentPhraseTrigger(t *testing.T) {
	def := registry.DefaultDefinition()
	def.Triggers = []string{"How can I sell my furniture?", "How do I move my furniture?"}
	reg, err := registry.New(def)
	require.NoError(t, err)
	h := newHarness(t, reg)

	branch, acts := h.send("How can I sell my furniture?")
	assert.Equal(t, domain.BranchShopping, branch)
	require.Len(t, acts, 1)
	want, _ := reg.IntentAnswer(registry.IntentSellingFurniture)
	assert.Equal(t, want, acts[0].Text)
	assert.True(t, h.state.Slots.IsEmpty())

	_, acts = h.send("How do I move my furniture?")
	require.Len(t, acts, 1)
	want, _ = reg.IntentAnswer(registry.IntentRetrieveOrMoveFurniture)
	assert.Equal(t, want, acts[0].Text)
}

func TestShopping_NonIntentTriggerClearsIntent(t *testing.T) {
	h := newHarness(t, nil)
	h.send("About shopping")
	h.state.Slots.Intent = "Stale"

	h.send("Clothes")
	assert.Empty(t, h.state.Slots.Intent)
}

func TestGreet(t *testing.T) {
	h := newHarness(t, nil)
	tc := dialog.NewTurnContext(h.state, "", nil, domain.LifecycleHooks{})
	branch := h.router.Greet(context.Background(), tc)
	assert.Equal(t, domain.BranchGreeting, branch)
	h.assertMenu(tc.Activities())
}

func TestRoute_FatalActionAbortsTurn(t *testing.T) {
	h := newHarness(t, nil)
	h.state.LastOptionList = domain.OptionList{
		DialogID: domain.DialogShopping,
		PromptID: domain.PromptItem,
		Slots:    domain.ShoppingSlots{Action: "rent"},
		Options:  h.reg.ItemChoices(),
	}

	tc := dialog.NewTurnContext(h.state, registry.ItemClothes, nil, domain.LifecycleHooks{})
	_, err := h.router.Route(context.Background(), tc)
	assert.ErrorIs(t, err, dialog.ErrUnknownAction)
}
