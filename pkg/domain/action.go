package domain

// ActivityType defines how the channel should deliver an activity.
type ActivityType string

const (
	// ActivityText is a plain text message.
	ActivityText ActivityType = "text"

	// ActivityOptions is a body text plus an ordered list of selectable options.
	ActivityOptions ActivityType = "options"
)

// Activity is one outbound message produced by a turn.
type Activity struct {
	Type    ActivityType `json:"type"`
	Text    string       `json:"text"`
	Options []Option     `json:"options,omitempty"`
}

// NewTextActivity creates a plain text activity.
func NewTextActivity(text string) Activity {
	return Activity{Type: ActivityText, Text: text}
}

// NewOptionsActivity creates a selectable-options activity.
func NewOptionsActivity(text string, options []Option) Activity {
	return Activity{
		Type:    ActivityOptions,
		Text:    text,
		Options: append([]Option(nil), options...),
	}
}
