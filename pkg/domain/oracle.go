package domain

// Tool is a capability the oracle may invoke on its own.
type Tool string

// ToolWebSearch lets the oracle search the web with a query string.
const ToolWebSearch Tool = "web_search"

// SchemaType enumerates the JSON types a Schema can describe.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeBoolean SchemaType = "boolean"
	TypeNumber  SchemaType = "number"
)

// Schema is a provider-neutral subset of JSON Schema describing structured output.
type Schema struct {
	Type        SchemaType         `json:"type" yaml:"type"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// OracleRequest is one call to the oracle.
type OracleRequest struct {
	// Step is the name of the calling step, used for tracing and stubbing.
	Step string
	// Model overrides the adapter's default model when set.
	Model string
	// Instruction is the system instruction with placeholders already resolved.
	Instruction string
	// Prompt is the user content of the turn.
	Prompt string
	// Schema requests a structured object instead of free text.
	Schema *Schema
	// Tools lists the capabilities the oracle may use.
	Tools []Tool
	// Temperature is passed through when set.
	Temperature *float32
}

// HasTool reports whether the request enables the given tool.
func (r OracleRequest) HasTool(t Tool) bool {
	for _, have := range r.Tools {
		if have == t {
			return true
		}
	}
	return false
}

// ResponseKind distinguishes the two shapes an oracle response can take.
type ResponseKind string

const (
	ResponseText   ResponseKind = "text"
	ResponseObject ResponseKind = "object"
)

// Usage reports token consumption of one call.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// OracleResponse is the single typed result produced at the oracle boundary.
// Object is set when Kind is ResponseObject; Text always holds the raw reply.
type OracleResponse struct {
	Kind    ResponseKind
	Text    string
	Object  map[string]any
	Sources []Source
	Usage   Usage
}
