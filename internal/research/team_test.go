package research_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/scout/internal/research"
	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/adapters/scripted"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type turn struct {
	inv    *flow.Invocation
	events []domain.Event
	err    error
}

func (tr *turn) final() domain.Event {
	for _, e := range tr.events {
		if e.IsFinalResponse() {
			return e
		}
	}
	return domain.Event{}
}

func (tr *turn) authors() []string {
	out := make([]string, len(tr.events))
	for i, e := range tr.events {
		out[i] = e.Author
	}
	return out
}

func (tr *turn) textsBy(author string) []string {
	var out []string
	for _, e := range tr.events {
		if e.Author == author && e.Text != "" {
			out = append(out, e.Text)
		}
	}
	return out
}

func runTurn(t *testing.T, oracle *scripted.Oracle, opts research.Options, message string) *turn {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	assistant, err := research.New(context.Background(), oracle, memory.DefaultPrompts(), opts)
	require.NoError(t, err)

	tr := &turn{}
	tr.inv = flow.NewInvocation(message, nil, flow.WithSink(func(e domain.Event) error {
		tr.events = append(tr.events, e)
		return nil
	}))
	tr.err = flow.RunStep(context.Background(), assistant, tr.inv)
	return tr
}

func intent(i domain.Intent) domain.OracleResponse {
	return scripted.Object(map[string]any{"intent": string(i)})
}

func queries(q ...string) domain.OracleResponse {
	items := make([]any, len(q))
	for i, s := range q {
		items[i] = s
	}
	return scripted.Object(map[string]any{"queries": items})
}

func verdict(sufficient bool, followUps ...string) domain.OracleResponse {
	obj := map[string]any{"is_sufficient": sufficient}
	if len(followUps) > 0 {
		items := make([]any, len(followUps))
		for i, s := range followUps {
			items[i] = s
		}
		obj["follow_up_queries"] = items
	}
	return scripted.Object(obj)
}

func outcome(t *testing.T, tr *turn) domain.LoopReport {
	t.Helper()
	report, ok := domain.Lookup[domain.LoopReport](tr.inv.State, domain.KeyResearchOutcome)
	require.True(t, ok, "research outcome missing")
	return report
}

func TestChitchatNeverResearches(t *testing.T) {
	oracle := scripted.New().On(research.Triage, intent(domain.IntentChitchat))

	tr := runTurn(t, oracle, research.DefaultOptions(), "thanks!")
	require.NoError(t, tr.err)

	assert.Equal(t, "You're welcome!", tr.final().Text)
	assert.Equal(t, 1, len(oracle.Calls()), "only triage may reach the oracle")
	for _, step := range []string{research.QueryGenerator, research.Researcher, research.Reflector, research.Summarizer} {
		assert.Zero(t, oracle.CallCount(step), step)
	}
	assert.NotContains(t, tr.authors(), research.Setup)
	assert.Equal(t, "chitchat", tr.inv.State.String(domain.KeyIntent))
}

func TestChitchatOracleReply(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentChitchat)).
		On(research.ChitChat, scripted.Text("Hi! Want me to look something up?"))

	opts := research.DefaultOptions()
	opts.ChitchatOracle = true
	tr := runTurn(t, oracle, opts, "hello")
	require.NoError(t, tr.err)

	assert.Equal(t, "Hi! Want me to look something up?", tr.final().Text)
	assert.Equal(t, research.ChitChat, tr.final().Author)
	assert.Zero(t, oracle.CallCount(research.Researcher))
}

func TestLoopNeverExceedsBound(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Researcher, scripted.Text("partial findings")).
		On(research.Reflector, verdict(false, "more")).
		On(research.Summarizer, scripted.Text("summary"))

	tr := runTurn(t, oracle, research.DefaultOptions(), "Compare every GPU ever made?")
	require.NoError(t, tr.err)

	assert.Equal(t, domain.LoopReport{Outcome: domain.LoopExhausted, Rounds: 3}, outcome(t, tr))
	assert.Equal(t, 3, oracle.CallCount(research.Reflector))
	assert.Equal(t, 3, oracle.CallCount(research.Researcher))
	assert.Equal(t, "summary", tr.final().Text)
}

func TestLoopBoundIsConfigurable(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Reflector, verdict(false, "more"))

	opts := research.DefaultOptions()
	opts.MaxIterations = 5
	tr := runTurn(t, oracle, opts, "deep question?")
	require.NoError(t, tr.err)

	assert.Equal(t, domain.LoopReport{Outcome: domain.LoopExhausted, Rounds: 5}, outcome(t, tr))
}

func TestSummariesMatchQueriesProcessed(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1", "q2")).
		On(research.Researcher, scripted.Text("s1"), scripted.Text("s2"), scripted.Text("")).
		On(research.Reflector, verdict(false, "q3"), verdict(true)).
		On(research.Summarizer, scripted.Text("done"))

	tr := runTurn(t, oracle, research.DefaultOptions(), "What changed in Go 1.25?")
	require.NoError(t, tr.err)

	summaries := tr.inv.State.Strings(domain.KeyResearchSummary)
	require.Len(t, summaries, 3)
	assert.Equal(t, "Summary for query 'q1':\ns1", summaries[0])
	assert.Equal(t, "Summary for query 'q2':\ns2", summaries[1])
	assert.Equal(t, "Summary for query 'q3':\nNo findings.", summaries[2])
	assert.Equal(t, 3, oracle.CallCount(research.Researcher))
	assert.Equal(t, domain.LoopReport{Outcome: domain.LoopConverged, Rounds: 2}, outcome(t, tr))

	_, pending := tr.inv.State.Get(domain.KeySearchQueries)
	assert.False(t, pending, "queries are consumed by the manager")
}

func TestInsufficientWithoutFollowUpsTerminates(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Reflector, verdict(false))

	tr := runTurn(t, oracle, research.DefaultOptions(), "Who won?")
	require.NoError(t, tr.err)

	assert.Equal(t, domain.LoopReport{Outcome: domain.LoopConverged, Rounds: 1}, outcome(t, tr))
	texts := tr.textsBy(research.Controller)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "no follow-up queries")
}

func TestFinalTextIsSummaryVerbatim(t *testing.T) {
	summary := "## Answer\n\nGo 1.25 ships a new GC [go](https://example.com). \n"
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Reflector, verdict(true)).
		On(research.Summarizer, scripted.Text(summary))

	tr := runTurn(t, oracle, research.DefaultOptions(), "What is new in Go?")
	require.NoError(t, tr.err)

	final := tr.final()
	assert.Equal(t, summary, final.Text)
	assert.Equal(t, "", final.Author)
	assert.True(t, final.TurnComplete)
	assert.Empty(t, tr.textsBy(research.Summarizer), "summarizer is silent")
	assert.Equal(t, summary, tr.inv.State.String(domain.KeyFinalSummary))
}

func TestSufficientFirstRoundRunsOnce(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Reflector, verdict(true, "ignored"))

	tr := runTurn(t, oracle, research.DefaultOptions(), "What time is it in Lisbon?")
	require.NoError(t, tr.err)

	assert.Equal(t, domain.LoopReport{Outcome: domain.LoopConverged, Rounds: 1}, outcome(t, tr))
	assert.Equal(t, 1, oracle.CallCount(research.Reflector))
	assert.Equal(t, []string{"Information is sufficient. Proceeding to final summary."}, tr.textsBy(research.Controller))
}

func TestResearchEventOrder(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Reflector, verdict(true))

	tr := runTurn(t, oracle, research.DefaultOptions(), "What is RAG?")
	require.NoError(t, tr.err)

	assert.Equal(t, []string{
		research.Coordinator, // analyzing
		research.Triage,
		research.Coordinator, // route announcement
		research.Setup,
		research.QueryGenerator,
		research.Manager, // starting
		research.Researcher,
		research.Manager, // summaries
		research.Reflector,
		research.Controller,
		research.Loop,
		research.Summarizer,
		"",
	}, tr.authors())

	assert.Equal(t, "Analyzing user intent...", tr.events[0].Text)
	assert.Equal(t, fixedNow.Format(domain.TimeLayout), tr.events[0].Actions.StateDelta[domain.KeyCurrentTime])
	assert.Equal(t, "Research query identified. Starting research team...", tr.events[2].Text)
	assert.Equal(t, "What is RAG?", tr.inv.State.String(domain.KeyUserQuestion))
	assert.Equal(t, "Starting research with 1 queries: q1", tr.events[5].Text)
}

func TestMalformedTriageFallsBackToDefaultIntent(t *testing.T) {
	oracle := scripted.New().On(research.Triage, scripted.Object(map[string]any{"intent": "weather"}))

	tr := runTurn(t, oracle, research.DefaultOptions(), "rain?")
	require.NoError(t, tr.err)
	assert.Equal(t, "You're welcome!", tr.final().Text)

	opts := research.DefaultOptions()
	opts.DefaultIntent = domain.IntentResearch
	tr = runTurn(t, scripted.New().On(research.Triage, scripted.Text("not json")), opts, "rain?")
	require.NoError(t, tr.err)
	assert.Equal(t, "research", tr.inv.State.String(domain.KeyIntent))
}

func TestMissingVerdictUsesAssumption(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Reflector, scripted.Object(map[string]any{"is_sufficient": map[string]any{"bogus": 1}}))

	tr := runTurn(t, oracle, research.DefaultOptions(), "What is RAG?")
	require.NoError(t, tr.err)
	assert.Equal(t, domain.LoopReport{Outcome: domain.LoopConverged, Rounds: 1}, outcome(t, tr))
}

func TestEmptyQueriesIsNoop(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries()).
		On(research.Reflector, verdict(true))

	tr := runTurn(t, oracle, research.DefaultOptions(), "What is RAG?")
	require.NoError(t, tr.err)

	assert.Equal(t, []string{"No new search queries to process."}, tr.textsBy(research.Manager))
	assert.Zero(t, oracle.CallCount(research.Researcher))
}

func TestQueriesPerRoundCap(t *testing.T) {
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("a", "b", "c", "d")).
		On(research.Reflector, verdict(true))

	opts := research.DefaultOptions()
	opts.MaxQueriesPerRound = 2
	tr := runTurn(t, oracle, opts, "What is RAG?")
	require.NoError(t, tr.err)

	assert.Equal(t, 2, oracle.CallCount(research.Researcher))
	assert.Len(t, tr.inv.State.Strings(domain.KeyResearchSummary), 2)
}

func TestFinalAnswerRestoresCitations(t *testing.T) {
	src := domain.Source{Label: "go", ShortURL: "https://vertexaisearch.cloud.google.com/id/0-0", URL: "https://go.dev/doc/go1.25"}
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		On(research.Researcher, scripted.Text("Go 1.25 is out [go]("+src.ShortURL+")", src)).
		On(research.Reflector, verdict(true)).
		On(research.Summarizer, scripted.Text("Go 1.25 is out [go]("+src.ShortURL+")."))

	tr := runTurn(t, oracle, research.DefaultOptions(), "What is new in Go?")
	require.NoError(t, tr.err)

	assert.Equal(t, "Go 1.25 is out [go](https://go.dev/doc/go1.25).", tr.final().Text)
	gathered, ok := domain.Lookup[[]domain.Source](tr.inv.State, domain.KeySources)
	require.True(t, ok)
	assert.Equal(t, []domain.Source{src}, gathered)
}

func TestOracleErrorPropagates(t *testing.T) {
	boom := errors.New("upstream unavailable")
	oracle := scripted.New().
		On(research.Triage, intent(domain.IntentResearch)).
		On(research.QueryGenerator, queries("q1")).
		Fail(research.Researcher, boom)

	tr := runTurn(t, oracle, research.DefaultOptions(), "What is RAG?")
	assert.ErrorIs(t, tr.err, boom)
	assert.True(t, strings.Contains(tr.err.Error(), research.Loop))
	assert.Zero(t, tr.final().Text)
}

func TestNew_RequiresOracle(t *testing.T) {
	_, err := research.New(context.Background(), nil, memory.DefaultPrompts(), research.DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrNoOracle)
}

func TestNew_MissingPrompt(t *testing.T) {
	_, err := research.New(context.Background(), scripted.New(), memory.NewPrompts(), research.DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrPromptNotFound)
}
