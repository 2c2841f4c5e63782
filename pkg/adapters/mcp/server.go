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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/auraflow/internal/compiler"
	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/internal/runtime"
	"github.com/aretw0/auraflow/pkg/domain"
)

const workflowURI = "auraflow://workflow"

// Engine defines what the MCP server needs from the flow engine.
type Engine interface {
	HandleMessage(ctx context.Context, sessionID, text string) (*runtime.Reply, error)
	Open(ctx context.Context, sessionID string) (*runtime.Reply, error)
	Reset(ctx context.Context, sessionID string) error
	Transcript(ctx context.Context, sessionID string) ([]domain.Entry, error)
	Published(ctx context.Context) (*domain.Published, error)
}

// TranscriptResponse is the structured output of get_transcript.
type TranscriptResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"The conversation"`
	Entries   []domain.Entry `json:"entries" jsonschema_description:"Every message in order"`
}

// Server exposes the chat as MCP tools, so an agent can play the end user.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("auraflow-mcp", strings.TrimSpace(version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// HandleMessage processes one raw JSON-RPC message.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, raw)
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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
		mcp.WithDescription("Send a user message to a conversation and return the assistant entries it produced."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("User message, e.g. an option number")),
		mcp.WithOutputSchema[runtime.Reply](),
	), mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open the chat window for a conversation: greets an empty transcript."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithOutputSchema[runtime.Reply](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Return every message of a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithOutputSchema[TranscriptResponse](),
	), mcp.NewStructuredToolHandler(s.handleTranscript))

	s.mcpServer.AddTool(mcp.NewTool("reset_conversation",
		mcp.WithDescription("Close the chat: clears the conversation state and transcript."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.engine.Reset(ctx, sessionID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcp.NewToolResultText("conversation reset"), nil
	})
}

func sessionArg(args map[string]interface{}) (string, error) {
	id, _ := args["session_id"].(string)
	if strings.TrimSpace(id) == "" {
		return "", errors.New("session_id is required")
	}
	return id, nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (runtime.Reply, error) {
	sessionID, err := sessionArg(args)
	if err != nil {
		return runtime.Reply{}, err
	}
	text, _ := args["text"].(string)

	reply, err := s.engine.HandleMessage(ctx, sessionID, text)
	if err != nil {
		s.logger.Warn("MCP send_message failed", "session_id", sessionID, "err", err)
		return runtime.Reply{}, fmt.Errorf("send_message failed: %w", err)
	}
	return *reply, nil
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (runtime.Reply, error) {
	sessionID, err := sessionArg(args)
	if err != nil {
		return runtime.Reply{}, err
	}
	reply, err := s.engine.Open(ctx, sessionID)
	if err != nil {
		return runtime.Reply{}, fmt.Errorf("open_session failed: %w", err)
	}
	return *reply, nil
}

func (s *Server) handleTranscript(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TranscriptResponse, error) {
	sessionID, err := sessionArg(args)
	if err != nil {
		return TranscriptResponse{}, err
	}
	entries, err := s.engine.Transcript(ctx, sessionID)
	if err != nil {
		return TranscriptResponse{}, fmt.Errorf("get_transcript failed: %w", err)
	}
	return TranscriptResponse{SessionID: sessionID, Entries: entries}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(workflowURI, "Published workflow",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := s.engine.Published(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow: %w", err)
		}
		jsonBytes, err := json.Marshal(compiler.Document(p.Graph))
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      workflowURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
