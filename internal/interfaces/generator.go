package interfaces

import "context"

// SchemaProperty describes one field of a structured-output schema in the
// provider's wire format.
type SchemaProperty struct {
	Type        string                    `json:"type"`
	Description string                    `json:"description,omitempty"`
	Enum        []string                  `json:"enum,omitempty"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`
}

// ResponseSchema is the shape contract the generation provider is
// constrained to produce.
type ResponseSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties,omitempty"`
	Items      *SchemaProperty           `json:"items,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// Generator is the raw call into an external AI generation provider:
// prompt text in, schema-conforming JSON out. Retry and validation policy
// live in the analysis client, not here.
type Generator interface {
	// Generate submits prompt with a response-shape contract and returns the
	// provider's raw JSON payload.
	Generate(ctx context.Context, prompt string, schema *ResponseSchema) ([]byte, error)
}
