package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/history"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	logger  *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithLogger sets the logger used for tool failures.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// handlers holds the dependencies shared by the tool handlers.
type handlers struct {
	provider promptcraft.FullProvider
	history  history.Repository
	logger   *slog.Logger
}

// NewServer creates an MCP server backed by provider. Successful
// generate_image calls are recorded in repo.
func NewServer(provider promptcraft.FullProvider, repo history.Repository, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "promptcraft",
		version: "1.0.0",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &handlers{provider: provider, history: repo, logger: cfg.logger}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)
	s.AddTool(describeTool(), h.describe)
	s.AddTool(inspireTool(), h.inspire)
	s.AddTool(generateTool(), h.generate)
	s.AddTool(listHistoryTool(), h.listHistory)
	s.AddTool(clearHistoryTool(), h.clearHistory)
	return s
}

// ServeStdio serves the PromptCraft tools over stdin/stdout.
func ServeStdio(provider promptcraft.FullProvider, repo history.Repository, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(provider, repo, opts...))
}

// toolError renders err as a tool result. Provider errors use their
// user-facing message.
func (h *handlers) toolError(tool string, err error) *mcp.CallToolResult {
	h.logger.Warn("tool failed", "tool", tool, "kind", promptcraft.KindOf(err), "error", err)
	return mcp.NewToolResultError(promptcraft.UserMessage(err))
}
