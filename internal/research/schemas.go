package research

import "github.com/aretw0/scout/pkg/domain"

var triageSchema = &domain.Schema{
	Type: domain.TypeObject,
	Properties: map[string]*domain.Schema{
		"intent": {
			Type:        domain.TypeString,
			Description: "Classify the user's intent as either 'research' or 'chitchat'.",
			Enum:        []string{string(domain.IntentResearch), string(domain.IntentChitchat)},
		},
	},
	Required: []string{"intent"},
}

var searchQueriesSchema = &domain.Schema{
	Type: domain.TypeObject,
	Properties: map[string]*domain.Schema{
		"queries": {
			Type:        domain.TypeArray,
			Description: "A list of 3-5 diverse and effective web search queries.",
			Items:       &domain.Schema{Type: domain.TypeString},
		},
	},
	Required: []string{"queries"},
}

var reflectionSchema = &domain.Schema{
	Type: domain.TypeObject,
	Properties: map[string]*domain.Schema{
		"is_sufficient": {
			Type:        domain.TypeBoolean,
			Description: "Is the information sufficient to answer the original question?",
		},
		"knowledge_gap": {
			Type:        domain.TypeString,
			Description: "What information is still missing, if any.",
		},
		"follow_up_queries": {
			Type:        domain.TypeArray,
			Description: "New search queries to fill knowledge gaps, if any.",
			Items:       &domain.Schema{Type: domain.TypeString},
		},
	},
	Required: []string{"is_sufficient"},
}
