// Package research assembles the research assistant from flow primitives.
//
// The root step classifies each message. Chit-chat gets a short reply;
// research questions run the research team:
//
//	Setup -> QueryGenerator -> Loop[max](Manager, Reflector, Controller) -> Summarizer -> FinalAnswer
package research

import (
	"context"
	"fmt"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
	"github.com/aretw0/scout/pkg/ports"
)

// Assistant is the root step of a turn.
type Assistant struct {
	router *flow.Router
	loop   *flow.Loop
	clock  func() string
}

// Name returns the coordinator name.
func (a *Assistant) Name() string { return Coordinator }

// MaxIterations returns the bound of the research loop.
func (a *Assistant) MaxIterations() int { return a.loop.MaxIterations() }

// Edges exposes the router for flow.Describe.
func (a *Assistant) Edges() []flow.Edge {
	return []flow.Edge{{Label: "triage", Step: a.router}}
}

// Run announces the triage, then lets the router pick the route.
func (a *Assistant) Run(ctx context.Context, inv *flow.Invocation) error {
	err := inv.Emit(domain.NewEvent(Coordinator, "Analyzing user intent...").WithDelta(map[string]any{
		domain.KeyCurrentTime: a.clock(),
	}))
	if err != nil {
		return err
	}
	return a.router.Run(ctx, inv)
}

// New builds the assistant. Prompts are resolved once, here.
func New(ctx context.Context, oracle ports.Oracle, prompts ports.PromptSource, opts Options) (*Assistant, error) {
	if oracle == nil {
		return nil, domain.ErrNoOracle
	}
	opts = opts.withDefaults()

	lookup := func(name string) (domain.Prompt, error) {
		p, err := prompts.Prompt(ctx, name)
		if err != nil {
			return domain.Prompt{}, fmt.Errorf("failed to load prompt %q: %w", name, err)
		}
		return p, nil
	}

	var (
		triageP, queryP, researchP, reflectP, summaryP domain.Prompt
		err                                            error
	)
	for name, dst := range map[string]*domain.Prompt{
		PromptTriage:         &triageP,
		PromptQueryGenerator: &queryP,
		PromptResearcher:     &researchP,
		PromptReflector:      &reflectP,
		PromptSummarizer:     &summaryP,
	} {
		if *dst, err = lookup(name); err != nil {
			return nil, err
		}
	}

	chitchat := newFixedReply(opts.ChitchatReply)
	if opts.ChitchatOracle {
		p, err := lookup(PromptChitChat)
		if err != nil {
			return nil, err
		}
		chitchat = flow.NewLLMStep(ChitChat, oracle, p, flow.Final())
	}

	researcher := flow.NewLLMStep(Researcher, oracle, researchP,
		flow.WithTools(domain.ToolWebSearch),
		flow.WithOutputKey(domain.KeyCurrentSummary),
		flow.WithSourcesKey(domain.KeySources),
	)

	loop := flow.NewLoop(Loop, []flow.Step{
		&researchManager{researcher: researcher, maxQueries: opts.MaxQueriesPerRound},
		flow.NewLLMStep(Reflector, oracle, reflectP,
			flow.WithSchema(reflectionSchema, flow.DecodeAs[domain.Reflection]()),
			flow.WithOutputKey(domain.KeyReflection),
		),
		&loopController{assumeSufficient: opts.AssumeSufficient},
	},
		flow.WithMaxIterations(opts.MaxIterations),
		flow.WithOutcomeKey(domain.KeyResearchOutcome),
	)

	team := flow.NewSequential(Team,
		newSetup(),
		flow.NewLLMStep(QueryGenerator, oracle, queryP,
			flow.WithSchema(searchQueriesSchema, flow.DecodeAs[domain.SearchQueries]()),
			flow.WithOutputKey(domain.KeySearchQueries),
		),
		loop,
		flow.NewLLMStep(Summarizer, oracle, summaryP,
			flow.WithOutputKey(domain.KeyFinalSummary),
			flow.Silent(),
		),
		newFinalAnswer(),
	)

	triage := flow.NewLLMStep(Triage, oracle, triageP,
		flow.WithSchema(triageSchema, flow.DecodeAs[domain.Triage]()),
		flow.WithOutputKey(domain.KeyTriage),
	)

	defaultIntent := string(opts.DefaultIntent)
	decide := func(inv *flow.Invocation) string {
		if t, ok := domain.Lookup[domain.Triage](inv.State, domain.KeyTriage); ok {
			return string(t.Intent)
		}
		return defaultIntent
	}

	router := flow.NewRouter(Coordinator, triage, decide,
		flow.WithRoute(string(domain.IntentResearch), team),
		flow.WithRoute(string(domain.IntentChitchat), chitchat),
		flow.WithFallback(defaultIntent),
		flow.WithRouteKey(domain.KeyIntent),
		flow.WithAnnouncement(func(route string) (string, bool) {
			if route == string(domain.IntentResearch) {
				return "Research query identified. Starting research team...", true
			}
			return "", false
		}),
	)

	clock := opts.Clock
	return &Assistant{
		router: router,
		loop:   loop,
		clock:  func() string { return clock().Format(domain.TimeLayout) },
	}, nil
}
