// Package anthropic implements the oracle on top of the Claude Messages API.
//
// Structured output is requested by rendering the JSON schema into the
// system prompt and extracting the object from the reply. Web search uses the
// server-side web search tool; its citations become markdown links with the
// same short URLs the Gemini adapter hands out.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aretw0/scout/internal/citation"
	"github.com/aretw0/scout/internal/logging"
	"github.com/aretw0/scout/internal/structured"
	"github.com/aretw0/scout/pkg/domain"
)

// DefaultModel is used when neither the prompt nor the options name a model.
const DefaultModel = "claude-sonnet-4-5"

// DefaultMaxTokens bounds each reply.
const DefaultMaxTokens = 4096

// Oracle implements ports.Oracle with Claude.
type Oracle struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	maxSearches int64
	logger      *slog.Logger
	requestOpts []option.RequestOption

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

// WithMaxTokens bounds each reply.
func WithMaxTokens(n int64) Option {
	return func(o *Oracle) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithMaxSearches bounds the web searches of a single call.
func WithMaxSearches(n int64) Option {
	return func(o *Oracle) {
		if n > 0 {
			o.maxSearches = n
		}
	}
}

// WithBaseURL points the client at another endpoint, such as a proxy.
func WithBaseURL(url string) Option {
	return func(o *Oracle) {
		if url != "" {
			o.requestOpts = append(o.requestOpts, option.WithBaseURL(url))
		}
	}
}

// WithRequestOptions passes extra options to the SDK client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(o *Oracle) {
		o.requestOpts = append(o.requestOpts, opts...)
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		o.logger = logger
	}
}

// New creates an Oracle.
func New(apiKey string, opts ...Option) (*Oracle, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: missing API key (set ANTHROPIC_API_KEY)")
	}
	o := &Oracle{
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		maxSearches: 5,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, o.requestOpts...)...)
	return o, nil
}

// Generate performs one Messages call.
func (o *Oracle) Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	params, err := o.buildParams(req)
	if err != nil {
		return domain.OracleResponse{}, err
	}

	msg, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return domain.OracleResponse{}, fmt.Errorf("anthropic %s: %w", params.Model, err)
	}

	text, sources := collect(msg, int(o.seq.Add(1)-1))
	out := domain.OracleResponse{
		Kind:    domain.ResponseText,
		Text:    text,
		Sources: sources,
		Usage: domain.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}

	if req.Schema != nil {
		obj, err := structured.Extract(text)
		if err != nil {
			o.logger.Warn("Claude reply is not a JSON object", "step", req.Step, "err", err)
			return out, nil
		}
		out.Kind = domain.ResponseObject
		out.Object = obj
	}
	return out, nil
}

func (o *Oracle) buildParams(req domain.OracleRequest) (anthropic.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	system, err := systemPrompt(req.Instruction, req.Schema)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: o.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}
	if req.HasTool(domain.ToolWebSearch) {
		params.Tools = []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(o.maxSearches),
			},
		}}
	}
	return params, nil
}

// systemPrompt appends the output contract to the instruction.
func systemPrompt(instruction string, schema *domain.Schema) (string, error) {
	if schema == nil {
		return instruction, nil
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render schema: %w", err)
	}

	var b strings.Builder
	if instruction != "" {
		b.WriteString(strings.TrimSpace(instruction))
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON object and nothing else. It must match this JSON Schema:\n")
	b.Write(data)
	return b.String(), nil
}

// collect joins the text blocks of msg. Each block citing web results is
// followed by " [label](short_url)" markers, one per distinct URL.
func collect(msg *anthropic.Message, id int) (string, []domain.Source) {
	type cited struct {
		text   string
		chunks []int
	}

	var (
		blocks []cited
		chunks []citation.Chunk
		index  = make(map[string]int)
	)
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		c := cited{text: block.Text}
		seen := make(map[string]bool)
		for _, ref := range block.Citations {
			if ref.Type != "web_search_result_location" || ref.URL == "" || seen[ref.URL] {
				continue
			}
			seen[ref.URL] = true
			idx, ok := index[ref.URL]
			if !ok {
				idx = len(chunks)
				index[ref.URL] = idx
				chunks = append(chunks, citation.Chunk{URI: ref.URL, Title: ref.Title})
			}
			c.chunks = append(c.chunks, idx)
		}
		blocks = append(blocks, c)
	}

	resolved := citation.ResolveURLs(chunks, id)
	var (
		text    strings.Builder
		sources []domain.Source
		used    = make(map[string]bool)
	)
	for _, block := range blocks {
		g := citation.Grounding{
			Chunks:   chunks,
			Supports: []citation.Support{{StartIndex: 0, EndIndex: len(block.text), ChunkIndices: block.chunks}},
		}
		cites := citation.Citations(g, resolved)
		text.WriteString(citation.InsertMarkers(block.text, cites))
		for _, src := range citation.Sources(cites) {
			if !used[src.URL] {
				used[src.URL] = true
				sources = append(sources, src)
			}
		}
	}
	return text.String(), sources
}
