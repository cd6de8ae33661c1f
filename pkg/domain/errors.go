package domain

import "errors"

// ErrConversationNotFound is returned when a conversation ID cannot be found in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrEmptyConversationID is returned when an operation is attempted without a conversation ID.
var ErrEmptyConversationID = errors.New("conversation id cannot be empty")
