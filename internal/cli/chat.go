package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/scout/internal/presentation/tui"
)

// ChatOptions configures an interactive conversation.
type ChatOptions struct {
	AskOptions
	Version string
	// Quiet disables the banner and prompt, even on a terminal.
	Quiet bool
}

// Chat reads questions line by line from in until EOF, "exit" or cancellation.
// Every turn runs in the same session; "/new" starts a fresh one.
func Chat(ctx context.Context, a Assistant, opts ChatOptions, in io.Reader, out io.Writer) error {
	interactive := !opts.Quiet && isTerminal(in)
	if interactive {
		tui.PrintBanner(out, opts.Version)
		printSystemMessage(out, "Ask a question. Type /new for a new session, exit to quit.")
	}

	lines := readLines(ctx, in)
	sessionID := opts.SessionID
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/new":
			sessionID = ""
			printSystemMessage(out, "Started a new session.")
			continue
		case "/session":
			printSystemMessage(out, "Session '%s'.", sessionID)
			continue
		}

		turn := opts.AskOptions
		turn.SessionID = sessionID
		res, err := Ask(ctx, a, turn, line, out)
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			// A failed turn does not end the conversation.
			printSystemMessage(out, "Error: %v", err)
		}
		if res != nil {
			sessionID = res.SessionID
		}
	}
}

// RunChat runs Chat until SIGINT or SIGTERM.
func RunChat(ctx context.Context, a Assistant, opts ChatOptions, in io.Reader, out io.Writer) error {
	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()
	return handleExecutionError(Chat(sigCtx, a, opts, in, out))
}

// readLines feeds the lines of r into a channel so that reads can be abandoned on cancellation.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
