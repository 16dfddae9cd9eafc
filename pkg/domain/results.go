package domain

import (
	"fmt"
	"strings"
)

// Intent is the classification of a user message.
type Intent string

const (
	IntentResearch Intent = "research"
	IntentChitchat Intent = "chitchat"
)

// ParseIntent normalizes s and reports whether it names a known intent.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentResearch:
		return IntentResearch, true
	case IntentChitchat:
		return IntentChitchat, true
	}
	return "", false
}

// Triage is the typed result of the classification step.
type Triage struct {
	Intent Intent `json:"intent" mapstructure:"intent"`
}

// Validate normalizes the intent and rejects values outside the enumeration.
func (t *Triage) Validate() error {
	intent, ok := ParseIntent(string(t.Intent))
	if !ok {
		return fmt.Errorf("invalid intent %q", t.Intent)
	}
	t.Intent = intent
	return nil
}

// SearchQueries is the typed result of the query generation step.
type SearchQueries struct {
	Queries []string `json:"queries" mapstructure:"queries"`
}

// Validate drops blank queries.
func (q *SearchQueries) Validate() error {
	q.Queries = compact(q.Queries)
	return nil
}

// Reflection is the Verdict produced by the reflection step.
type Reflection struct {
	IsSufficient    bool     `json:"is_sufficient" mapstructure:"is_sufficient"`
	KnowledgeGap    string   `json:"knowledge_gap,omitempty" mapstructure:"knowledge_gap"`
	FollowUpQueries []string `json:"follow_up_queries,omitempty" mapstructure:"follow_up_queries"`
}

// Validate drops blank follow-up queries.
func (r *Reflection) Validate() error {
	r.FollowUpQueries = compact(r.FollowUpQueries)
	return nil
}

// Source is a web citation gathered while researching.
type Source struct {
	Label    string `json:"label" mapstructure:"label"`
	ShortURL string `json:"short_url" mapstructure:"short_url"`
	URL      string `json:"url" mapstructure:"url"`
}

// LoopOutcome is the terminal state of a bounded loop.
type LoopOutcome string

const (
	LoopIterating LoopOutcome = "iterating"
	LoopConverged LoopOutcome = "converged"
	LoopExhausted LoopOutcome = "exhausted"
)

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// LoopReport records how a bounded loop ended.
type LoopReport struct {
	Outcome LoopOutcome `json:"outcome" mapstructure:"outcome"`
	Rounds  int         `json:"rounds" mapstructure:"rounds"`
}
