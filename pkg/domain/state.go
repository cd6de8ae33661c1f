package domain

// Step identifies a position inside a sub-dialog.
type Step string

const (
	StepAskAction     Step = "ask_action"
	StepAskItem       Step = "ask_item"
	StepProvideAnswer Step = "provide_answer"
)

// DialogShopping is the identifier of the shopping sub-dialog.
const DialogShopping = "shopping"

// Prompt identifiers recorded in OptionList.PromptID.
const (
	PromptAction = "SHOPPING_ACTION_PROMPT"
	PromptItem   = "SHOPPING_ITEM_PROMPT"
)

// DialogFrame is one suspended sub-dialog.
type DialogFrame struct {
	DialogID string `json:"dialog_id"`
	Step     Step   `json:"step"`
}

// DialogStack is the explicit, persisted replacement for a framework call stack.
// The router keeps it at most one frame deep.
type DialogStack []DialogFrame

// Active returns the top frame, if any.
func (s DialogStack) Active() (DialogFrame, bool) {
	if len(s) == 0 {
		return DialogFrame{}, false
	}
	return s[len(s)-1], true
}

// IsActive reports whether the given dialog is on top of the stack.
func (s DialogStack) IsActive(dialogID string) bool {
	f, ok := s.Active()
	return ok && f.DialogID == dialogID
}

// Push adds a frame on top of the stack.
func (s *DialogStack) Push(f DialogFrame) {
	*s = append(*s, f)
}

// Pop removes the top frame. Popping an empty stack is a no-op.
func (s *DialogStack) Pop() {
	if len(*s) == 0 {
		return
	}
	*s = (*s)[:len(*s)-1]
}

// SetStep moves the top frame to the given step.
func (s DialogStack) SetStep(step Step) {
	if len(s) == 0 {
		return
	}
	s[len(s)-1].Step = step
}

// Clear cancels every frame.
func (s *DialogStack) Clear() {
	*s = nil
}

// ShoppingSlots holds what the shopping dialog knows so far.
// An empty string means the slot is not filled.
type ShoppingSlots struct {
	Intent string `json:"intent,omitempty"`
	Action string `json:"action,omitempty"`
	Item   string `json:"item,omitempty"`
}

// IsEmpty reports whether no slot is filled.
func (s ShoppingSlots) IsEmpty() bool {
	return s == ShoppingSlots{}
}

// Option is one selectable choice. Payload is what comes back as text when clicked.
type Option struct {
	Title   string `json:"title" yaml:"title"`
	Payload string `json:"payload" yaml:"payload"`
}

// OptionList records the most recent set of choices, so a plain-text reply can be
// matched back to one of them.
type OptionList struct {
	DialogID string        `json:"dialog_id,omitempty"`
	PromptID string        `json:"prompt_id,omitempty"`
	Slots    ShoppingSlots `json:"slots"`
	Options  []Option      `json:"options,omitempty"`
}

// HasPayload reports whether text exactly equals one of the option payloads.
// A list without a prompt id never matches.
func (l OptionList) HasPayload(text string) bool {
	if l.PromptID == "" {
		return false
	}
	for _, opt := range l.Options {
		if opt.Payload == text {
			return true
		}
	}
	return false
}

// ConversationState is the record persisted for every conversation.
type ConversationState struct {
	ConversationID string        `json:"conversation_id"`
	DialogStack    DialogStack   `json:"dialog_stack,omitempty"`
	Slots          ShoppingSlots `json:"slots"`
	LastOptionList OptionList    `json:"last_option_list"`

	// Turns counts processed turns. Informational only.
	Turns int `json:"turns"`

	// Sealed holds the encrypted form of the record when the store is wrapped
	// with encryption. All other fields are empty in that case.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewConversationState creates the empty record used on first contact.
func NewConversationState(conversationID string) *ConversationState {
	return &ConversationState{ConversationID: conversationID}
}

// Clone returns a deep copy, so callers can mutate it without touching the original.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	if s.DialogStack != nil {
		c.DialogStack = append(DialogStack(nil), s.DialogStack...)
	}
	if s.LastOptionList.Options != nil {
		c.LastOptionList.Options = append([]Option(nil), s.LastOptionList.Options...)
	}
	if s.Sealed != nil {
		c.Sealed = append([]byte(nil), s.Sealed...)
	}
	return &c
}
