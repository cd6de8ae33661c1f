package parley

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/dialog"
	"github.com/aretw0/parley/pkg/dialog/shopping"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrMissingStore is returned by New when no state store was configured.
var ErrMissingStore = errors.New("state store is required")

const tracerName = "github.com/aretw0/parley"

// Reply is everything a single turn produced.
type Reply struct {
	ConversationID string            `json:"conversation_id"`
	Branch         domain.Branch     `json:"branch"`
	Activities     []domain.Activity `json:"activities"`
}

// Engine is the high-level entry point of the library.
// It owns the turn boundary: lock, load, route, save.
type Engine struct {
	store    ports.StateStore
	registry *registry.Registry
	router   *runtime.Router
	manager  *session.Manager
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the state store. Required.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithRegistry replaces the built-in shopping registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLocker serializes turns across replicas with a distributed lock.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithTracer sets the tracer used for turn spans. Defaults to the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		return nil, ErrMissingStore
	}
	if eng.registry == nil {
		eng.registry = registry.Default()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.tracer == nil {
		eng.tracer = otel.Tracer(tracerName)
	}

	dlg, err := shopping.New(eng.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping dialog: %w", err)
	}
	eng.router, err = runtime.NewRouter(eng.registry, dlg, runtime.WithLogger(eng.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	eng.manager = session.NewManager(eng.store, sessionOpts...)

	return eng, nil
}

// Handle processes one line of user text for a conversation.
// State is loaded at the start and saved at the end; a failed turn saves nothing.
func (e *Engine) Handle(ctx context.Context, conversationID, text string) (*Reply, error) {
	return e.turn(ctx, "parley.Handle", conversationID, text, func(ctx context.Context, tc *dialog.TurnContext) (domain.Branch, error) {
		return e.router.Route(ctx, tc)
	})
}

// Greet opens a conversation by showing the top-level menu.
func (e *Engine) Greet(ctx context.Context, conversationID string) (*Reply, error) {
	return e.turn(ctx, "parley.Greet", conversationID, "", func(ctx context.Context, tc *dialog.TurnContext) (domain.Branch, error) {
		return e.router.Greet(ctx, tc), nil
	})
}

type routeFunc func(ctx context.Context, tc *dialog.TurnContext) (domain.Branch, error)

func (e *Engine) turn(ctx context.Context, spanName, conversationID, text string, route routeFunc) (*Reply, error) {
	ctx, span := e.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("parley.conversation_id", conversationID),
	))
	defer span.End()

	logger := e.logger.With("conversation_id", conversationID)
	start := time.Now()
	if e.hooks.OnTurnStart != nil {
		e.hooks.OnTurnStart(ctx, &domain.TurnEvent{
			EventBase: domain.NewEventBase(domain.EventTurnStart, conversationID),
		})
	}

	var reply *Reply
	err := e.manager.WithLock(ctx, conversationID, func(ctx context.Context) error {
		loaded, err := e.manager.LoadOrNew(ctx, conversationID)
		if err != nil {
			return err
		}

		state := loaded.Clone()
		tc := dialog.NewTurnContext(state, text, logger, e.hooks)
		branch, err := route(ctx, tc)
		if err != nil {
			return fmt.Errorf("%s turn failed: %w", branch, err)
		}
		state.Turns++

		if err := e.manager.Save(ctx, conversationID, state); err != nil {
			return err
		}
		if diff := domain.Diff(loaded, state); !diff.IsEmpty() {
			logger.DebugContext(ctx, "state changed", "diff", diff)
		}

		reply = &Reply{
			ConversationID: conversationID,
			Branch:         branch,
			Activities:     tc.Activities(),
		}
		return nil
	})

	end := &domain.TurnEvent{
		EventBase: domain.NewEventBase(domain.EventTurnEnd, conversationID),
		Duration:  time.Since(start),
		Err:       err,
	}
	if reply != nil {
		end.Branch = reply.Branch
	}
	if e.hooks.OnTurnEnd != nil {
		e.hooks.OnTurnEnd(ctx, end)
	}

	if err != nil {
		logger.ErrorContext(ctx, "turn failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("parley.branch", string(reply.Branch)))
	logger.DebugContext(ctx, "turn handled", "branch", reply.Branch, "activities", len(reply.Activities))
	return reply, nil
}

// State returns the persisted state of a conversation.
func (e *Engine) State(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	return e.manager.Load(ctx, conversationID)
}

// Delete removes a conversation.
func (e *Engine) Delete(ctx context.Context, conversationID string) error {
	return e.manager.Delete(ctx, conversationID)
}

// List returns the IDs of every stored conversation.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// Registry returns the registry the engine routes with.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}
