package domain

// Well-known Interaction State keys.
const (
	KeyUserQuestion    = "user_question"
	KeyCurrentTime     = "current_time"
	KeyTriage          = "triage_result"
	KeyIntent          = "intent"
	KeySearchQueries   = "search_queries"
	KeyCurrentQuery    = "current_query"
	KeyCurrentSummary  = "current_research_summary"
	KeyResearchSummary = "all_research_summaries"
	KeySources         = "sources_gathered"
	KeyReflection      = "reflection_result"
	KeyResearchOutcome = "research_outcome"
	KeyFinalSummary    = "final_summary"
	KeyCitedSources    = "cited_sources"
)

// TimeLayout is the format used for the current_time key.
const TimeLayout = "2006-01-02 15:04:05"
