// Package mcp exposes the assistant as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/aretw0/scout/pkg/runner"
	"github.com/aretw0/scout/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PromptsURI is the resource listing the prompt catalog.
const PromptsURI = "scout://prompts"

// Assistant is the part of the runner the server drives.
type Assistant interface {
	Run(ctx context.Context, req runner.Request, sink flow.Sink) (*runner.Result, error)
	Sessions() *session.Manager
}

// AskArgs are the arguments of the ask tool.
type AskArgs struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResult is the structured output of the ask tool.
type AskResult struct {
	SessionID  string          `json:"session_id" jsonschema_description:"Session to pass back for follow-up questions"`
	Answer     string          `json:"answer" jsonschema_description:"Final answer in markdown, with inline citations"`
	Intent     string          `json:"intent" jsonschema_description:"research or chitchat"`
	Iterations int             `json:"iterations" jsonschema_description:"Research rounds run before answering"`
	Sources    []domain.Source `json:"sources" jsonschema_description:"Web sources cited by the answer"`
}

// SessionInfo is one entry of the list_sessions tool.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Events    int       `json:"events"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionList is the structured output of the list_sessions tool.
type SessionList struct {
	Sessions []SessionInfo `json:"sessions"`
}

// Server wraps the assistant and exposes it as an MCP Server.
type Server struct {
	assistant Assistant
	prompts   ports.PromptSource
	userID    string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithUserID labels the sessions created through MCP.
func WithUserID(id string) Option {
	return func(s *Server) {
		s.userID = id
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(assistant Assistant, prompts ports.PromptSource, version string, opts ...Option) *Server {
	s := &Server{
		assistant: assistant,
		prompts:   prompts,
		userID:    "mcp",
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("scout-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
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

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop MCP server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Ask the research assistant. Questions are researched on the web and answered with citations; casual messages get a short reply."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The message or question")),
		mcp.WithString("session_id", mcp.Description("Session to continue (optional)")),
		mcp.WithOutputSchema[AskResult](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List stored sessions, most recent first."),
		mcp.WithOutputSchema[SessionList](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListSessions))
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args AskArgs) (AskResult, error) {
	res, err := s.assistant.Run(ctx, runner.Request{
		UserID:    s.userID,
		SessionID: args.SessionID,
		Message:   args.Question,
	}, nil)
	if err != nil {
		s.logger.Warn("MCP ask failed", "session_id", args.SessionID, "err", err)
		return AskResult{}, fmt.Errorf("ask failed: %w", err)
	}
	return toAskResult(res), nil
}

func toAskResult(res *runner.Result) AskResult {
	return AskResult{
		SessionID:  res.SessionID,
		Answer:     res.FinalText,
		Intent:     res.Intent,
		Iterations: res.Rounds(),
		Sources:    res.Sources(),
	}
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SessionList, error) {
	sessions := s.assistant.Sessions()
	ids, err := sessions.List(ctx)
	if err != nil {
		return SessionList{}, fmt.Errorf("list sessions: %w", err)
	}

	out := SessionList{Sessions: make([]SessionInfo, 0, len(ids))}
	for _, id := range ids {
		sess, err := sessions.Get(ctx, id)
		if err != nil {
			continue
		}
		out.Sessions = append(out.Sessions, SessionInfo{
			ID:        sess.ID,
			UserID:    sess.UserID,
			Events:    len(sess.Events),
			UpdatedAt: sess.UpdatedAt,
		})
	}
	sort.Slice(out.Sessions, func(i, j int) bool {
		return out.Sessions[i].UpdatedAt.After(out.Sessions[j].UpdatedAt)
	})
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(PromptsURI, "Prompt Catalog",
		mcp.WithResourceDescription("Instructions used by each step of the research pipeline"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.prompts.ListPrompts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list prompts: %w", err)
		}
		catalog := make([]domain.Prompt, 0, len(names))
		for _, name := range names {
			p, err := s.prompts.Prompt(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("failed to load prompt %s: %w", name, err)
			}
			catalog = append(catalog, p)
		}
		data, err := json.Marshal(catalog)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      PromptsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
