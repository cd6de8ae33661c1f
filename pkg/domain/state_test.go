package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialogStack(t *testing.T) {
	var s DialogStack
	_, ok := s.Active()
	assert.False(t, ok)
	assert.False(t, s.IsActive(DialogShopping))

	s.Pop() // no-op on empty
	s.SetStep(StepAskItem)
	assert.Empty(t, s)

	s.Push(DialogFrame{DialogID: DialogShopping, Step: StepAskAction})
	assert.True(t, s.IsActive(DialogShopping))

	s.SetStep(StepAskItem)
	f, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, StepAskItem, f.Step)

	s.Clear()
	assert.Empty(t, s)
}

func TestOptionList_HasPayload(t *testing.T) {
	list := OptionList{
		PromptID: PromptItem,
		Options:  []Option{{Title: "Clothes", Payload: "Clothes"}},
	}
	assert.True(t, list.HasPayload("Clothes"))
	assert.False(t, list.HasPayload("clothes"))
	assert.False(t, list.HasPayload("I want Clothes"))

	list.PromptID = ""
	assert.False(t, list.HasPayload("Clothes"))
}

func TestConversationState_CloneIsDeep(t *testing.T) {
	s := NewConversationState("c1")
	s.DialogStack.Push(DialogFrame{DialogID: DialogShopping, Step: StepAskAction})
	s.LastOptionList = OptionList{PromptID: PromptAction, Options: []Option{{Title: "Buy", Payload: "buy"}}}

	c := s.Clone()
	c.DialogStack.SetStep(StepAskItem)
	c.LastOptionList.Options[0].Payload = "sell"
	c.Slots.Action = "buy"

	assert.Equal(t, StepAskAction, s.DialogStack[0].Step)
	assert.Equal(t, "buy", s.LastOptionList.Options[0].Payload)
	assert.True(t, s.Slots.IsEmpty())

	var nilState *ConversationState
	assert.Nil(t, nilState.Clone())
}

func TestConversationState_JSONRoundTrip(t *testing.T) {
	s := NewConversationState("c1")
	s.DialogStack.Push(DialogFrame{DialogID: DialogShopping, Step: StepAskItem})
	s.Slots = ShoppingSlots{Action: "buy"}
	s.Turns = 3

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out ConversationState
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, *s, out)
}

func TestDiff(t *testing.T) {
	before := NewConversationState("c1")
	after := before.Clone()
	assert.True(t, Diff(before, after).IsEmpty())

	after.DialogStack.Push(DialogFrame{DialogID: DialogShopping, Step: StepAskAction})
	after.Slots.Action = "buy"
	d := Diff(before, after)
	require.NotNil(t, d.DialogStack)
	require.NotNil(t, d.Slots)
	assert.Nil(t, d.PromptID)
	assert.Equal(t, "buy", d.Slots.Action)

	full := Diff(nil, after)
	assert.NotNil(t, full.DialogStack)
	assert.NotNil(t, full.PromptID)
	assert.Nil(t, Diff(before, nil))
}
