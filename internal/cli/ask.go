package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/aretw0/scout/internal/presentation/tui"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/aretw0/scout/pkg/runner"
)

// CLIUser labels the sessions created from the command line.
const CLIUser = "cli"

// AskOptions configures a single question.
type AskOptions struct {
	SessionID string
	// JSON prints one JSON record per line instead of the activity view.
	JSON    bool
	Verbose bool
	Render  tui.Renderer
}

// Record is one line of the JSON output.
type Record struct {
	Type   string        `json:"type"`
	Event  *domain.Event `json:"event,omitempty"`
	Result *Summary      `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Summary is the last record of a turn.
type Summary struct {
	SessionID  string          `json:"session_id"`
	Intent     string          `json:"intent"`
	Answer     string          `json:"answer"`
	Iterations int             `json:"iterations"`
	Sources    []domain.Source `json:"sources"`
}

func summarize(res *runner.Result) *Summary {
	return &Summary{
		SessionID:  res.SessionID,
		Intent:     res.Intent,
		Answer:     res.FinalText,
		Iterations: res.Rounds(),
		Sources:    res.Sources(),
	}
}

// Ask runs one turn and prints its progress and answer to out.
func Ask(ctx context.Context, a Assistant, opts AskOptions, question string, out io.Writer) (*runner.Result, error) {
	req := runner.Request{UserID: CLIUser, SessionID: opts.SessionID, Message: question}

	if !opts.JSON {
		activity := tui.NewActivity(out, opts.Render, opts.Verbose)
		return a.Run(ctx, req, activity.Handle)
	}

	enc := json.NewEncoder(out)
	var sink flow.Sink = func(e domain.Event) error {
		if e.Author == domain.AuthorUser {
			return nil
		}
		return enc.Encode(Record{Type: "event", Event: &e})
	}

	res, err := a.Run(ctx, req, sink)
	if err != nil {
		if encErr := enc.Encode(Record{Type: "error", Error: err.Error()}); encErr != nil {
			return res, encErr
		}
		return res, err
	}
	return res, enc.Encode(Record{Type: "result", Result: summarize(res)})
}

// RunAsk answers one question and exits, printing the session to resume.
func RunAsk(ctx context.Context, a Assistant, opts AskOptions, question string, out io.Writer) error {
	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	res, err := Ask(sigCtx, a, opts, question, out)
	if err != nil {
		return handleExecutionError(err)
	}
	if !opts.JSON {
		printSystemMessage(out, "Session '%s'. Continue with --session %s.", res.SessionID, res.SessionID)
	}
	return nil
}
