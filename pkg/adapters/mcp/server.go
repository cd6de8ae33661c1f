// Package mcp exposes the dialog engine as Model Context Protocol tools,
// so an agent can hold a shopping conversation on behalf of a user.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const registryURI = "parley://registry"

// Engine is the subset of parley.Engine the MCP server needs.
type Engine interface {
	Handle(ctx context.Context, conversationID, text string) (*parley.Reply, error)
	Greet(ctx context.Context, conversationID string) (*parley.Reply, error)
	State(ctx context.Context, conversationID string) (*domain.ConversationState, error)
	Registry() *registry.Registry
}

// ToolResponse is the structured result of every conversation tool.
type ToolResponse struct {
	ConversationID string            `json:"conversation_id" jsonschema_description:"The conversation the turn belongs to"`
	Branch         string            `json:"branch" jsonschema_description:"How the turn was routed: greeting, card_reply, shopping or reset"`
	Activities     []domain.Activity `json:"activities" jsonschema_description:"Messages to show the user, in order"`
}

type sendMessageArgs struct {
	ConversationID string `mapstructure:"conversation_id"`
	Text           string `mapstructure:"text"`
}

type conversationArgs struct {
	ConversationID string `mapstructure:"conversation_id"`
}

// Server wraps the Engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
	maxInput  int
	newID     func() string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxInput overrides the message size limit.
func WithMaxInput(limit int) Option {
	return func(s *Server) {
		s.maxInput = limit
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on the given port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send one line of user text to a shopping conversation and get the assistant's reply."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The user's message, or the payload of an option shown earlier")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("start_conversation",
		mcp.WithDescription("Open a conversation and get the top-level menu. A new ID is generated when omitted."),
		mcp.WithString("conversation_id", mcp.Description("Conversation identifier (optional)")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartConversation))

	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Inspect the persisted state of a conversation: active dialog step, slots and last shown options."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
	), s.handleGetConversation)
}

func decodeArgs(args map[string]any, out any) error {
	if err := mapstructure.Decode(args, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func toResponse(reply *parley.Reply) ToolResponse {
	return ToolResponse{
		ConversationID: reply.ConversationID,
		Branch:         string(reply.Branch),
		Activities:     reply.Activities,
	}
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in sendMessageArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, err
	}
	if in.ConversationID == "" {
		return ToolResponse{}, domain.ErrEmptyConversationID
	}

	clean, err := runner.SanitizeInputLimit(in.Text, s.maxInput)
	if err != nil {
		s.logger.Warn("mcp send_message: input rejected", "err", err, "size", len(in.Text))
		return ToolResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	reply, err := s.engine.Handle(ctx, in.ConversationID, clean)
	if err != nil {
		return ToolResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return toResponse(reply), nil
}

func (s *Server) handleStartConversation(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ToolResponse, error) {
	var in conversationArgs
	if err := decodeArgs(args, &in); err != nil {
		return ToolResponse{}, err
	}
	if in.ConversationID == "" {
		in.ConversationID = s.newID()
	}

	reply, err := s.engine.Greet(ctx, in.ConversationID)
	if err != nil {
		return ToolResponse{}, fmt.Errorf("greeting failed: %w", err)
	}
	return toResponse(reply), nil
}

func (s *Server) handleGetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in conversationArgs
	if err := decodeArgs(request.GetArguments(), &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.engine.State(ctx, in.ConversationID)
	if errors.Is(err, domain.ErrConversationNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("conversation %q not found", in.ConversationID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

type registryView struct {
	ShoppingLabel string          `json:"shopping_label"`
	RootMenu      []domain.Option `json:"root_menu"`
	Actions       []domain.Option `json:"actions"`
	Items         []domain.Option `json:"items"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(registryURI, "Shopping options",
		mcp.WithResourceDescription("The menu, actions and items the assistant understands"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.registryJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      registryURI,
				MIMEType: "application/json",
				Text:     data,
			},
		}, nil
	})
}

func (s *Server) registryJSON() (string, error) {
	reg := s.engine.Registry()
	data, err := json.Marshal(registryView{
		ShoppingLabel: reg.ShoppingLabel(),
		RootMenu:      reg.RootMenu(),
		Actions:       reg.ActionChoices(),
		Items:         reg.ItemChoices(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode registry: %w", err)
	}
	return string(data), nil
}
