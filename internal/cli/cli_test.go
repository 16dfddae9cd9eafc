package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/internal/presentation/tui"
	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOfflineAssistant(t *testing.T) *scout.Assistant {
	t.Helper()
	a, err := NewAssistant(context.Background(),
		Options{Offline: true, Backend: config.BackendMemory, ConfigPath: writeConfig(t, "log:\n  level: error\n")},
		scout.WithLogger(logging.NewNop()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "oracle:\n  provider: anthropic\nlog:\n  level: info\n")

	cfg, err := LoadConfig(Options{ConfigPath: path, LogLevel: "debug", Offline: true, Backend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOffline, cfg.Oracle.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.BackendMemory, cfg.Sessions.Backend)

	_, err = LoadConfig(Options{ConfigPath: path, Provider: "bogus"})
	assert.Error(t, err)
}

func TestAsk_Text(t *testing.T) {
	a := newOfflineAssistant(t)
	var out bytes.Buffer

	res, err := Ask(context.Background(), a, AskOptions{Render: tui.Plain}, "How does the Go scheduler work?", &out)
	require.NoError(t, err)
	assert.Equal(t, "research", res.Intent)
	assert.Contains(t, out.String(), "Analyzing user intent...")
	assert.Contains(t, out.String(), res.FinalText)
}

func TestAsk_JSON(t *testing.T) {
	a := newOfflineAssistant(t)
	var out bytes.Buffer

	res, err := Ask(context.Background(), a, AskOptions{JSON: true}, "How does the Go scheduler work?", &out)
	require.NoError(t, err)

	var records []Record
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var r Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r), scanner.Text())
		records = append(records, r)
	}
	require.NotEmpty(t, records)

	for _, r := range records[:len(records)-1] {
		assert.Equal(t, "event", r.Type)
		assert.NotEqual(t, "user", r.Event.Author)
	}
	last := records[len(records)-1]
	assert.Equal(t, "result", last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, res.SessionID, last.Result.SessionID)
	assert.Equal(t, 1, last.Result.Iterations)
	assert.Equal(t, res.FinalText, last.Result.Answer)
	assert.NotNil(t, last.Result.Sources)
}

func TestAsk_JSONError(t *testing.T) {
	a := newOfflineAssistant(t)
	var out bytes.Buffer

	_, err := Ask(context.Background(), a, AskOptions{JSON: true}, "   ", &out)
	require.Error(t, err)

	var r Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, "error", r.Type)
	assert.NotEmpty(t, r.Error)
}

func TestChat_KeepsSessionAcrossTurns(t *testing.T) {
	a := newOfflineAssistant(t)
	in := strings.NewReader("thanks\n\nHow does the Go scheduler work?\n/session\nexit\nignored?\n")
	var out bytes.Buffer

	require.NoError(t, Chat(context.Background(), a, ChatOptions{AskOptions: AskOptions{Render: tui.Plain}}, in, &out))
	assert.Contains(t, out.String(), "You're welcome!")
	assert.NotContains(t, out.String(), "ignored")

	ids, err := a.Sessions().List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)

	sess, err := a.Sessions().Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, CLIUser, sess.UserID)
	assert.Contains(t, out.String(), "Session '"+ids[0]+"'.")
}

func TestChat_NewSession(t *testing.T) {
	a := newOfflineAssistant(t)
	in := strings.NewReader("thanks\n/new\nthanks\n")

	require.NoError(t, Chat(context.Background(), a, ChatOptions{AskOptions: AskOptions{Render: tui.Plain}}, in, &bytes.Buffer{}))

	ids, err := a.Sessions().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestChat_CancelledContext(t *testing.T) {
	a := newOfflineAssistant(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never returns data must not block a cancelled chat.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	assert.NoError(t, Chat(ctx, a, ChatOptions{Quiet: true}, r, &bytes.Buffer{}))
}

func TestSessionCommands(t *testing.T) {
	a := newOfflineAssistant(t)
	ctx := context.Background()

	res, err := a.Ask(ctx, "", "How does the Go scheduler work?")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, a.Sessions(), &out))
	assert.Contains(t, out.String(), "- "+res.SessionID)

	out.Reset()
	require.NoError(t, InspectSession(ctx, a.Sessions(), res.SessionID, &out))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, res.SessionID, decoded["id"])

	out.Reset()
	require.NoError(t, PrintGraph(ctx, a.Describe(), a.Sessions(), res.SessionID, &out))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), "class SummarizerAgent current;")

	out.Reset()
	err = RemoveSessions(ctx, a.Sessions(), []string{res.SessionID, "missing"}, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Removed session '"+res.SessionID+"'")
	assert.Contains(t, out.String(), "Error removing 'missing'")

	out.Reset()
	require.NoError(t, ListSessions(ctx, a.Sessions(), &out))
	assert.Equal(t, "No sessions found.\n", out.String())
}

func TestPromptCommands(t *testing.T) {
	ctx := context.Background()
	prompts := memory.DefaultPrompts()
	var out bytes.Buffer

	require.NoError(t, ListPrompts(ctx, prompts, &out))
	assert.Contains(t, out.String(), "- triage")
	assert.Contains(t, out.String(), "- summarizer")

	out.Reset()
	require.NoError(t, ShowPrompt(ctx, prompts, "reflector", &out))
	assert.Contains(t, out.String(), "name: reflector")
	assert.Contains(t, out.String(), "instruction:")

	assert.Error(t, ShowPrompt(ctx, prompts, "nope", &out))
}
