package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the activities of one turn.
	Output(ctx context.Context, activities []domain.Activity) error

	// Input reads the next reply. io.EOF ends the conversation loop.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, status) distinct from dialog content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms text before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
