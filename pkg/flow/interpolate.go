package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/scout/pkg/domain"
)

// Interpolator resolves placeholders in an instruction template.
type Interpolator func(ctx context.Context, template string, state *domain.State) (string, error)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(\?)?\}`)

// BraceInterpolator replaces {key} with the state value under key.
// Missing keys render as the empty string; {key?} is accepted as an alias.
func BraceInterpolator(_ context.Context, template string, state *domain.State) (string, error) {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := state.Get(key)
		if !ok {
			return ""
		}
		return FormatValue(v)
	}), nil
}

// FormatValue renders a state value for inclusion in an instruction.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, "\n\n---\n\n")
	case domain.SearchQueries:
		return strings.Join(val.Queries, "\n")
	case fmt.Stringer:
		return val.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
