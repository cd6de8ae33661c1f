package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
)

// Runner drives one conversation against an Engine using an IOHandler.
// It is the loop behind the interactive chat command.
type Runner struct {
	engine         *parley.Engine
	conversationID string
	handler        IOHandler
	logger         *slog.Logger
	exitWords      []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy. Defaults to a TextHandler on stdin/stdout.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithLogger sets the logger used for internal debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithExitWords replaces the words that end the loop. Matching is case-insensitive.
func WithExitWords(words ...string) Option {
	return func(r *Runner) {
		r.exitWords = words
	}
}

// New creates a Runner for the given conversation.
func New(engine *parley.Engine, conversationID string, opts ...Option) *Runner {
	r := &Runner{
		engine:         engine,
		conversationID: conversationID,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		exitWords:      []string{"exit", "quit"},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run greets a new conversation (or resumes a stored one) and then loops
// reading input and printing replies until EOF, an exit word, or cancellation.
// Turn errors are reported through SystemOutput and do not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.conversationID == "" {
		return domain.ErrEmptyConversationID
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if err := r.start(signals.Context()); err != nil {
		return err
	}

	for {
		current := signals.Context()

		text, err := r.handler.Input(current)
		if err != nil {
			signals.CheckRace()
			if errors.Is(err, io.EOF) || signals.Interrupted() {
				r.logger.Debug("input closed", "conversation_id", r.conversationID)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("input error: %w", err)
		}

		if r.isExit(text) {
			return r.handler.SystemOutput(current, "Goodbye.")
		}

		reply, err := r.engine.Handle(current, r.conversationID, text)
		if err != nil {
			r.logger.Debug("turn failed", "conversation_id", r.conversationID, "err", err)
			if oerr := r.handler.SystemOutput(current, fmt.Sprintf("Error: %v", err)); oerr != nil {
				return oerr
			}
			continue
		}

		if err := r.handler.Output(current, reply.Activities); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) start(ctx context.Context) error {
	state, err := r.engine.State(ctx, r.conversationID)
	switch {
	case err == nil:
		r.logger.Debug("resuming conversation", "conversation_id", r.conversationID, "turns", state.Turns)
		return r.handler.SystemOutput(ctx, fmt.Sprintf("Resuming conversation %s.", r.conversationID))
	case errors.Is(err, domain.ErrConversationNotFound):
	default:
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	reply, err := r.engine.Greet(ctx, r.conversationID)
	if err != nil {
		return fmt.Errorf("failed to greet: %w", err)
	}
	if err := r.handler.Output(ctx, reply.Activities); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

func (r *Runner) isExit(text string) bool {
	for _, w := range r.exitWords {
		if strings.EqualFold(strings.TrimSpace(text), w) {
			return true
		}
	}
	return false
}
