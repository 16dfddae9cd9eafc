package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// LLMStep calls the oracle with an interpolated instruction and stores the result.
type LLMStep struct {
	name         string
	oracle       ports.Oracle
	prompt       domain.Prompt
	schema       *domain.Schema
	decode       Decoder
	tools        []domain.Tool
	temperature  *float32
	outputKey    string
	sourcesKey   string
	silent       bool
	final        bool
	interpolator Interpolator
}

// LLMOption configures an LLMStep.
type LLMOption func(*LLMStep)

// WithSchema requests structured output. The decoded value is stored instead of the text.
func WithSchema(schema *domain.Schema, decode Decoder) LLMOption {
	return func(s *LLMStep) {
		s.schema = schema
		s.decode = decode
	}
}

// WithTools lets the oracle use the given tools.
func WithTools(tools ...domain.Tool) LLMOption {
	return func(s *LLMStep) {
		s.tools = append(s.tools, tools...)
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) LLMOption {
	return func(s *LLMStep) {
		s.temperature = &t
	}
}

// WithOutputKey stores the result in the state under key.
func WithOutputKey(key string) LLMOption {
	return func(s *LLMStep) {
		s.outputKey = key
	}
}

// WithSourcesKey appends the citations returned by the oracle to the list under key.
func WithSourcesKey(key string) LLMOption {
	return func(s *LLMStep) {
		s.sourcesKey = key
	}
}

// Silent emits only the state delta, never the oracle text.
func Silent() LLMOption {
	return func(s *LLMStep) {
		s.silent = true
	}
}

// Final marks the emitted event as the response shown to the user.
func Final() LLMOption {
	return func(s *LLMStep) {
		s.final = true
	}
}

// WithInterpolator replaces the default {key} interpolation.
func WithInterpolator(i Interpolator) LLMOption {
	return func(s *LLMStep) {
		s.interpolator = i
	}
}

// NewLLMStep creates an oracle step named name driven by prompt.
func NewLLMStep(name string, oracle ports.Oracle, prompt domain.Prompt, opts ...LLMOption) *LLMStep {
	s := &LLMStep{
		name:         name,
		oracle:       oracle,
		prompt:       prompt,
		interpolator: BraceInterpolator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name, used as the event author.
func (s *LLMStep) Name() string { return s.name }

// Run performs one oracle call.
func (s *LLMStep) Run(ctx context.Context, inv *Invocation) error {
	if s.oracle == nil {
		return domain.ErrNoOracle
	}

	instruction, err := s.interpolator(ctx, s.prompt.Instruction, inv.State)
	if err != nil {
		return fmt.Errorf("interpolation failed: %w", err)
	}

	req := domain.OracleRequest{
		Step:        s.name,
		Model:       s.prompt.Model,
		Instruction: instruction,
		Prompt:      inv.UserContent,
		Schema:      s.schema,
		Tools:       s.tools,
		Temperature: s.temperature,
	}

	resp, err := s.call(ctx, inv, req)
	if err != nil {
		return fmt.Errorf("oracle call failed: %w", err)
	}

	ev := domain.Event{Author: s.name, Text: resp.Text, Final: s.final, TurnComplete: s.final}
	if s.silent {
		ev.Text = ""
	}

	delta := make(map[string]any)
	if s.outputKey != "" {
		// A result that cannot be decoded is recorded as absent so that
		// readers fall back to their defaults instead of a stale value.
		delta[s.outputKey] = s.output(inv, resp)
	}
	if s.sourcesKey != "" && len(resp.Sources) > 0 {
		prev, _ := domain.Lookup[[]domain.Source](inv.State, s.sourcesKey)
		sources := make([]domain.Source, 0, len(prev)+len(resp.Sources))
		sources = append(sources, prev...)
		delta[s.sourcesKey] = append(sources, resp.Sources...)
	}
	if len(delta) > 0 {
		ev.Actions.StateDelta = delta
	}

	return inv.Emit(ev)
}

func (s *LLMStep) call(ctx context.Context, inv *Invocation, req domain.OracleRequest) (domain.OracleResponse, error) {
	hooks := inv.Hooks()
	if hooks.OnOracleCall != nil {
		hooks.OnOracleCall(ctx, &domain.OracleEvent{
			HookBase: inv.base(domain.HookOracleCall),
			Step:     s.name,
			Model:    req.Model,
			Tools:    req.Tools,
		})
	}

	start := time.Now()
	resp, err := s.oracle.Generate(ctx, req)

	if hooks.OnOracleReturn != nil {
		hooks.OnOracleReturn(ctx, &domain.OracleEvent{
			HookBase: inv.base(domain.HookOracleReturn),
			Step:     s.name,
			Model:    req.Model,
			Tools:    req.Tools,
			Usage:    resp.Usage,
			Duration: time.Since(start),
			IsError:  err != nil,
		})
	}
	return resp, err
}

// output returns the value stored under the output key, or nil when absent.
func (s *LLMStep) output(inv *Invocation, resp domain.OracleResponse) any {
	if s.schema == nil {
		return resp.Text
	}
	if resp.Kind != domain.ResponseObject || resp.Object == nil {
		inv.Logger().Warn("Oracle returned no structured object", "step", s.name)
		return nil
	}
	if s.decode == nil {
		return resp.Object
	}
	value, err := s.decode(resp.Object)
	if err != nil {
		inv.Logger().Warn("Discarding malformed structured output", "step", s.name, "err", err)
		return nil
	}
	return value
}
