package research

import (
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/flow"
)

// Step names. They double as event authors and as keys for scripted oracles.
const (
	Coordinator    = "ResearchCoordinator"
	Triage         = "TriageAgent"
	Team           = "ResearchTeam"
	Setup          = "SetupAgent"
	QueryGenerator = "QueryGeneratorAgent"
	Loop           = "ResearchLoop"
	Manager        = "ResearchManager"
	Researcher     = "ResearcherAgent"
	Reflector      = "ReflectorAgent"
	Controller     = "LoopController"
	Summarizer     = "SummarizerAgent"
	FinalAnswer    = "FinalAnswerAgent"
	ChitChat       = "ChitChatAgent"
)

// Prompt names looked up in the catalog.
const (
	PromptTriage         = "triage"
	PromptChitChat       = "chitchat"
	PromptQueryGenerator = "query_generator"
	PromptResearcher     = "researcher"
	PromptReflector      = "reflector"
	PromptSummarizer     = "summarizer"
)

// Options holds the product knobs of the research assistant.
type Options struct {
	// MaxIterations bounds the research loop.
	MaxIterations int
	// DefaultIntent is used when triage yields no valid intent.
	DefaultIntent domain.Intent
	// AssumeSufficient is the verdict used when reflection yields no result.
	AssumeSufficient bool
	// ChitchatReply is the fixed answer to casual messages.
	ChitchatReply string
	// ChitchatOracle asks the oracle for the casual reply instead.
	ChitchatOracle bool
	// MaxQueriesPerRound truncates each round's query list. 0 disables the cap.
	MaxQueriesPerRound int
	// Clock stamps current_time. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		MaxIterations:      flow.DefaultMaxIterations,
		DefaultIntent:      domain.IntentChitchat,
		AssumeSufficient:   true,
		ChitchatReply:      "You're welcome!",
		MaxQueriesPerRound: 5,
		Clock:              time.Now,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if _, ok := domain.ParseIntent(string(o.DefaultIntent)); !ok {
		o.DefaultIntent = def.DefaultIntent
	}
	if o.ChitchatReply == "" {
		o.ChitchatReply = def.ChitchatReply
	}
	if o.MaxQueriesPerRound < 0 {
		o.MaxQueriesPerRound = 0
	}
	if o.Clock == nil {
		o.Clock = def.Clock
	}
	return o
}
