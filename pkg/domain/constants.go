package domain

// Branch names the decision the router took for a turn.
type Branch string

const (
	// BranchCardReply: the text matched a payload of the last recorded option list.
	BranchCardReply Branch = "card_reply"
	// BranchShopping: the text is a shopping trigger; the shopping dialog resumes or begins.
	BranchShopping Branch = "shopping"
	// BranchReset: everything is cancelled and the top-level menu is shown.
	BranchReset Branch = "reset"
	// BranchGreeting: the conversation was just opened.
	BranchGreeting Branch = "greeting"
)
