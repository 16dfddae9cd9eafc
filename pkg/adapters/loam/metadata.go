package loam

// PromptMetadata is the front matter of a prompt document.
// It uses "mapstructure" tags to match the YAML keys.
type PromptMetadata struct {
	// ID overrides the name derived from the file name.
	ID          string `json:"id" mapstructure:"id"`
	Description string `json:"description" mapstructure:"description"`
	// Model overrides the oracle's default model for this prompt.
	Model string `json:"model" mapstructure:"model"`
}
