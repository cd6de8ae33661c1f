package domain

// StateDiff represents the changes a turn made to a conversation.
// It is designed to be serialized to JSON for logs and partial client updates.
type StateDiff struct {
	// ConversationID is always present to identify the target.
	ConversationID string `json:"conversation_id"`

	// DialogStack is set when the active frame or its step changed.
	DialogStack *DialogStack `json:"dialog_stack,omitempty"`

	// Slots is set when any slot changed.
	Slots *ShoppingSlots `json:"slots,omitempty"`

	// PromptID is set when a different option list was recorded.
	PromptID *string `json:"prompt_id,omitempty"`
}

// IsEmpty reports whether the diff carries no change.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || (d.DialogStack == nil && d.Slots == nil && d.PromptID == nil)
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *ConversationState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{ConversationID: newState.ConversationID}

	if oldState == nil || !sameStack(oldState.DialogStack, newState.DialogStack) {
		stack := append(DialogStack{}, newState.DialogStack...)
		diff.DialogStack = &stack
	}
	if oldState == nil || oldState.Slots != newState.Slots {
		slots := newState.Slots
		diff.Slots = &slots
	}
	if oldState == nil || oldState.LastOptionList.PromptID != newState.LastOptionList.PromptID {
		promptID := newState.LastOptionList.PromptID
		diff.PromptID = &promptID
	}

	return diff
}

func sameStack(a, b DialogStack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
