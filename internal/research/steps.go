package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/scout/internal/citation"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
)

// newSetup records the user question for the prompts of the research team.
func newSetup() flow.Step {
	return flow.StepFunc(Setup, func(ctx context.Context, inv *flow.Invocation) error {
		return inv.Emit(domain.NewEvent(Setup, "Initializing research context...").WithDelta(map[string]any{
			domain.KeyUserQuestion: inv.UserContent,
		}))
	})
}

// researchManager runs the researcher once per pending search query.
type researchManager struct {
	researcher flow.Step
	maxQueries int
}

func (m *researchManager) Name() string { return Manager }

func (m *researchManager) Edges() []flow.Edge {
	return []flow.Edge{{Label: "each query", Step: m.researcher}}
}

func (m *researchManager) Run(ctx context.Context, inv *flow.Invocation) error {
	pending, _ := domain.Lookup[domain.SearchQueries](inv.State, domain.KeySearchQueries)
	queries := pending.Queries
	if len(queries) == 0 {
		return inv.Emit(domain.NewEvent(Manager, "No new search queries to process."))
	}
	if m.maxQueries > 0 && len(queries) > m.maxQueries {
		inv.Logger().Debug("Truncating search queries", "queries", len(queries), "max", m.maxQueries)
		queries = queries[:m.maxQueries]
	}

	err := inv.Emit(domain.NewEvent(Manager,
		fmt.Sprintf("Starting research with %d queries: %s", len(queries), strings.Join(queries, ", "))))
	if err != nil {
		return err
	}

	summaries := inv.State.Strings(domain.KeyResearchSummary)
	for _, query := range queries {
		// Scratch keys for the researcher prompt.
		inv.State.Set(domain.KeyCurrentQuery, query)
		inv.State.Set(domain.KeyCurrentSummary, nil)

		if err := flow.RunStep(ctx, m.researcher, inv); err != nil {
			return fmt.Errorf("query %q: %w", query, err)
		}

		summary := strings.TrimSpace(inv.State.String(domain.KeyCurrentSummary))
		if summary == "" {
			summary = "No findings."
		}
		summaries = append(summaries, labelSummary(query, summary))
	}

	return inv.Emit(domain.Event{Author: Manager}.WithDelta(map[string]any{
		domain.KeyResearchSummary: summaries,
		domain.KeySearchQueries:   nil,
	}))
}

// loopController turns the reflector's verdict into either new queries or an escalation.
type loopController struct {
	assumeSufficient bool
}

func (c *loopController) Name() string { return Controller }

func (c *loopController) Run(ctx context.Context, inv *flow.Invocation) error {
	verdict, ok := domain.Lookup[domain.Reflection](inv.State, domain.KeyReflection)
	if !ok {
		inv.Logger().Debug("No reflection result, using default verdict", "sufficient", c.assumeSufficient)
		verdict = domain.Reflection{IsSufficient: c.assumeSufficient}
	}

	if !verdict.IsSufficient && len(verdict.FollowUpQueries) > 0 {
		return inv.Emit(domain.NewEvent(Controller,
			"Information not sufficient. New queries: "+strings.Join(verdict.FollowUpQueries, ", ")).
			WithDelta(map[string]any{
				domain.KeySearchQueries: domain.SearchQueries{Queries: verdict.FollowUpQueries},
			}))
	}

	text := "Information is sufficient. Proceeding to final summary."
	if !verdict.IsSufficient {
		text = "Information not sufficient but no follow-up queries were proposed. Proceeding to final summary."
	}
	ev := domain.NewEvent(Controller, text)
	ev.Actions.Escalate = true
	return inv.Emit(ev)
}

// newFinalAnswer presents the summary with the real citation URLs restored.
func newFinalAnswer() flow.Step {
	return flow.StepFunc(FinalAnswer, func(ctx context.Context, inv *flow.Invocation) error {
		sources, _ := domain.Lookup[[]domain.Source](inv.State, domain.KeySources)
		text, cited := citation.Restore(inv.State.String(domain.KeyFinalSummary), sources)

		ev := domain.Event{Text: text, Final: true, TurnComplete: true}
		if len(cited) > 0 {
			ev.Actions.StateDelta = map[string]any{domain.KeyCitedSources: cited}
		}
		return inv.Emit(ev)
	})
}

// newFixedReply answers casual messages without calling the oracle.
func newFixedReply(reply string) flow.Step {
	return flow.StepFunc(ChitChat, func(ctx context.Context, inv *flow.Invocation) error {
		return inv.Emit(domain.Event{Author: ChitChat, Text: reply, Final: true, TurnComplete: true})
	})
}

// labelSummary ties a summary to its query for the reflector and summarizer.
func labelSummary(query, summary string) string {
	return fmt.Sprintf("Summary for query '%s':\n%s", query, summary)
}
