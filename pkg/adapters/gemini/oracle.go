// Package gemini implements the oracle on top of the Gemini API.
//
// Web search uses the Google Search grounding tool. Grounded replies come back
// with inline citation markers pointing at short URLs; the real URLs travel in
// the response sources.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/scout/internal/citation"
	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/internal/structured"
	"github.com/aretw0/scout/pkg/domain"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the prompt nor the options name a model.
const DefaultModel = "gemini-2.0-flash"

// generator is the subset of *genai.Models the oracle needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Oracle implements ports.Oracle with Gemini.
type Oracle struct {
	models    generator
	model     string
	maxTokens int32
	logger    *slog.Logger

	// seq numbers grounded replies so that short URLs are unique per process.
	seq atomic.Int64
}

// Option configures the Oracle.
type Option func(*Oracle)

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(o *Oracle) {
		if model != "" {
			o.model = model
		}
	}
}

// WithMaxTokens caps the output tokens of every call.
func WithMaxTokens(n int32) Option {
	return func(o *Oracle) {
		o.maxTokens = n
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		o.logger = logger
	}
}

// New creates an Oracle using the Gemini API key.
func New(ctx context.Context, apiKey string, opts ...Option) (*Oracle, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: missing API key (set GOOGLE_API_KEY or GEMINI_API_KEY)")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return newOracle(client.Models, opts...), nil
}

func newOracle(models generator, opts ...Option) *Oracle {
	o := &Oracle{
		models: models,
		model:  DefaultModel,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate performs one GenerateContent call.
func (o *Oracle) Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	resp, err := o.models.GenerateContent(ctx, model, genai.Text(req.Prompt), o.buildConfig(req))
	if err != nil {
		return domain.OracleResponse{}, fmt.Errorf("gemini %s: %w", model, err)
	}

	out := convert(resp, req, int(o.seq.Add(1)-1))
	if req.Schema != nil && out.Kind != domain.ResponseObject {
		o.logger.Warn("Gemini reply is not a JSON object", "step", req.Step, "model", model)
	}
	return out, nil
}

func (o *Oracle) buildConfig(req domain.OracleRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: o.maxTokens,
	}
	if req.Instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(req.Schema)
	}
	if req.HasTool(domain.ToolWebSearch) {
		cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	return cfg
}

// toSchema converts the provider-neutral schema.
func toSchema(s *domain.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func schemaType(t domain.SchemaType) genai.Type {
	switch t {
	case domain.TypeObject:
		return genai.TypeObject
	case domain.TypeArray:
		return genai.TypeArray
	case domain.TypeBoolean:
		return genai.TypeBoolean
	case domain.TypeNumber:
		return genai.TypeNumber
	}
	return genai.TypeString
}

// convert maps a Gemini reply to the oracle response. id distinguishes the
// short URLs of this reply from those of other replies in the same turn.
func convert(resp *genai.GenerateContentResponse, req domain.OracleRequest, id int) domain.OracleResponse {
	out := domain.OracleResponse{Kind: domain.ResponseText, Text: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = domain.Usage{
			InputTokens:  int64(u.PromptTokenCount),
			OutputTokens: int64(u.CandidatesTokenCount),
		}
	}

	if req.Schema != nil {
		if obj, err := structured.Extract(out.Text); err == nil {
			out.Kind = domain.ResponseObject
			out.Object = obj
		}
		return out
	}

	if g, ok := grounding(resp); ok {
		resolved := citation.ResolveURLs(g.Chunks, id)
		citations := citation.Citations(g, resolved)
		out.Text = citation.InsertMarkers(out.Text, citations)
		out.Sources = citation.Sources(citations)
	}
	return out
}

// grounding extracts the grounding metadata of the first candidate.
func grounding(resp *genai.GenerateContentResponse) (citation.Grounding, bool) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return citation.Grounding{}, false
	}
	meta := resp.Candidates[0].GroundingMetadata
	if len(meta.GroundingChunks) == 0 {
		return citation.Grounding{}, false
	}

	var g citation.Grounding
	for _, chunk := range meta.GroundingChunks {
		var c citation.Chunk
		if chunk != nil && chunk.Web != nil {
			c = citation.Chunk{URI: chunk.Web.URI, Title: chunk.Web.Title}
		}
		g.Chunks = append(g.Chunks, c)
	}
	for _, support := range meta.GroundingSupports {
		if support == nil || support.Segment == nil {
			continue
		}
		s := citation.Support{
			StartIndex: int(support.Segment.StartIndex),
			EndIndex:   int(support.Segment.EndIndex),
		}
		for _, idx := range support.GroundingChunkIndices {
			s.ChunkIndices = append(s.ChunkIndices, int(idx))
		}
		g.Supports = append(g.Supports, s)
	}
	return g, true
}
