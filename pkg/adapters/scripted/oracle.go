// Package scripted provides a deterministic oracle for tests and offline runs.
//
// Responses are queued per step name. A step whose queue holds one response
// keeps returning it; steps without a script fall through to a responder,
// which by default derives a plausible answer from the request alone.
package scripted

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/scout/pkg/domain"
)

// Responder answers requests that have no scripted response.
type Responder func(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error)

type reply struct {
	resp domain.OracleResponse
	err  error
}

// Oracle implements ports.Oracle from scripted replies.
// Safe for concurrent use.
type Oracle struct {
	mu        sync.Mutex
	queues    map[string][]reply
	calls     []domain.OracleRequest
	responder Responder
}

// Option configures the Oracle.
type Option func(*Oracle)

// WithResponder replaces the fallback used for unscripted steps.
func WithResponder(r Responder) Option {
	return func(o *Oracle) {
		o.responder = r
	}
}

// New creates an Oracle whose unscripted steps are answered by Offline.
func New(opts ...Option) *Oracle {
	o := &Oracle{
		queues:    make(map[string][]reply),
		responder: Offline,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// On queues responses for step. They are returned in order; the last one repeats.
func (o *Oracle) On(step string, responses ...domain.OracleResponse) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, r := range responses {
		o.queues[step] = append(o.queues[step], reply{resp: r})
	}
	return o
}

// Fail makes the next call for step return err.
func (o *Oracle) Fail(step string, err error) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queues[step] = append(o.queues[step], reply{err: err})
	return o
}

// Generate returns the next scripted reply for req.Step.
func (o *Oracle) Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.OracleResponse{}, err
	}

	o.mu.Lock()
	o.calls = append(o.calls, req)
	queue := o.queues[req.Step]
	var next *reply
	if len(queue) > 0 {
		r := queue[0]
		next = &r
		if len(queue) > 1 {
			o.queues[req.Step] = queue[1:]
		}
	}
	o.mu.Unlock()

	if next != nil {
		return next.resp, next.err
	}
	return o.responder(ctx, req)
}

// Calls returns every request received so far.
func (o *Oracle) Calls() []domain.OracleRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.OracleRequest, len(o.calls))
	copy(out, o.calls)
	return out
}

// CallCount returns how many requests were made by step.
func (o *Oracle) CallCount(step string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, c := range o.calls {
		if c.Step == step {
			n++
		}
	}
	return n
}

// Text builds a free-text response.
func Text(text string, sources ...domain.Source) domain.OracleResponse {
	return domain.OracleResponse{Kind: domain.ResponseText, Text: text, Sources: sources}
}

// Object builds a structured response.
func Object(obj map[string]any) domain.OracleResponse {
	text, _ := json.Marshal(obj)
	return domain.OracleResponse{Kind: domain.ResponseObject, Object: obj, Text: string(text)}
}

// Offline answers from the request alone, so the whole pipeline can run
// without network access. Structured steps get a minimal valid object:
// questions are treated as research, the question itself is the only search
// query and the first reflection is always sufficient.
func Offline(_ context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	if req.Schema == nil {
		if req.HasTool(domain.ToolWebSearch) {
			return Text(fmt.Sprintf("No live search results are available offline for %q.", firstLine(req.Prompt))), nil
		}
		return Text(fmt.Sprintf("(offline) %s", firstLine(req.Prompt))), nil
	}

	props := req.Schema.Properties
	switch {
	case props["intent"] != nil:
		intent := domain.IntentChitchat
		if strings.Contains(req.Prompt, "?") || len(strings.Fields(req.Prompt)) > 4 {
			intent = domain.IntentResearch
		}
		return Object(map[string]any{"intent": string(intent)}), nil
	case props["queries"] != nil:
		return Object(map[string]any{"queries": []any{firstLine(req.Prompt)}}), nil
	case props["is_sufficient"] != nil:
		return Object(map[string]any{"is_sufficient": true}), nil
	}
	return Object(map[string]any{}), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
