package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aretw0/scout/internal/presentation/graph"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/aretw0/scout/pkg/session"
)

// ListSessions prints one line per stored session, most recent first.
func ListSessions(ctx context.Context, sessions *session.Manager, out io.Writer) error {
	ids, err := sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	loaded := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		s, err := sessions.Get(ctx, id)
		if err != nil {
			// Removed or expired between List and Get.
			continue
		}
		loaded = append(loaded, s)
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].UpdatedAt.After(loaded[j].UpdatedAt) })

	fmt.Fprintln(out, "Sessions:")
	for _, s := range loaded {
		fmt.Fprintf(out, "- %s  user=%s events=%d updated=%s\n",
			s.ID, s.UserID, len(s.Events), s.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

// InspectSession prints a session as indented JSON.
func InspectSession(ctx context.Context, sessions *session.Manager, id string, out io.Writer) error {
	s, err := sessions.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// RemoveSessions deletes every listed session and reports each outcome.
func RemoveSessions(ctx context.Context, sessions *session.Manager, ids []string, out io.Writer) error {
	var errs []error
	for _, id := range ids {
		if err := sessions.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

// PrintGraph prints the step tree as Mermaid. With a session ID the steps
// that session went through are highlighted.
func PrintGraph(ctx context.Context, tree flow.Description, sessions *session.Manager, sessionID string, out io.Writer) error {
	var overlay *graph.Overlay
	if sessionID != "" {
		s, err := sessions.Get(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}
		overlay = graph.OverlayFromEvents(s.Events)
	}
	_, err := fmt.Fprint(out, graph.GenerateMermaid(tree, overlay))
	return err
}
