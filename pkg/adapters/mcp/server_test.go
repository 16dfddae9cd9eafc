package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/scout/internal/research"
	scoutmcp "github.com/aretw0/scout/pkg/adapters/mcp"
	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/adapters/scripted"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/runner"
	"github.com/aretw0/scout/pkg/session"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, oracle *scripted.Oracle) *client.Client {
	t.Helper()
	prompts := memory.DefaultPrompts()
	assistant, err := research.New(context.Background(), oracle, prompts, research.DefaultOptions())
	require.NoError(t, err)
	r := runner.New(assistant, session.NewManager(memory.NewStore()))

	srv := scoutmcp.NewServer(r, prompts, "test")
	c, err := client.NewInProcessClient(srv.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Start(ctx))

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "scout-test", Version: "1.0.0"}
	_, err = c.Initialize(ctx, init)
	require.NoError(t, err)
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	return res
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var out T
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestListTools(t *testing.T) {
	c := newClient(t, scripted.New())

	tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask", "list_sessions"}, names)
}

func TestAsk_Research(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, scripted.Object(map[string]any{"intent": "research"})).
		On(research.QueryGenerator, scripted.Object(map[string]any{"queries": []any{"go 1.25 release"}})).
		On(research.Researcher, scripted.Text("Go 1.25 shipped in August.")).
		On(research.Reflector, scripted.Object(map[string]any{"is_sufficient": true})).
		On(research.Summarizer, scripted.Text("Go 1.25 was released in August 2025."))
	c := newClient(t, oracle)

	out := decode[scoutmcp.AskResult](t, callTool(t, c, "ask", map[string]any{"question": "When was Go 1.25 released?"}))

	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, "research", out.Intent)
	assert.Equal(t, "Go 1.25 was released in August 2025.", out.Answer)
	assert.Equal(t, 1, out.Iterations)
	assert.Empty(t, out.Sources)

	// A follow-up in the same session lands in the same log.
	again := decode[scoutmcp.AskResult](t, callTool(t, c, "ask", map[string]any{
		"question":   "thanks",
		"session_id": out.SessionID,
	}))
	assert.Equal(t, out.SessionID, again.SessionID)

	list := decode[scoutmcp.SessionList](t, callTool(t, c, "list_sessions", nil))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "mcp", list.Sessions[0].UserID)
}

func TestAsk_Chitchat(t *testing.T) {
	c := newClient(t, scripted.New())

	out := decode[scoutmcp.AskResult](t, callTool(t, c, "ask", map[string]any{"question": "thanks!"}))
	assert.Equal(t, "chitchat", out.Intent)
	assert.Equal(t, "You're welcome!", out.Answer)
	assert.Zero(t, out.Iterations)
}

func TestAsk_EmptyQuestionIsToolError(t *testing.T) {
	c := newClient(t, scripted.New())

	res := callTool(t, c, "ask", map[string]any{"question": "  "})
	assert.True(t, res.IsError)
}

func TestPromptsResource(t *testing.T) {
	c := newClient(t, scripted.New())

	req := mcp.ReadResourceRequest{}
	req.Params.URI = scoutmcp.PromptsURI
	res, err := c.ReadResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	text, ok := res.Contents[0].(mcp.TextResourceContents)
	require.True(t, ok)

	var catalog []domain.Prompt
	require.NoError(t, json.Unmarshal([]byte(text.Text), &catalog))
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	assert.Contains(t, names, research.PromptResearcher)
	assert.Contains(t, names, research.PromptTriage)
}
