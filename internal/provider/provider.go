package provider

import (
	"context"

	"docsift-backend/internal/schema"
)

// Attachment is one document handed to the backend alongside the prompt.
type Attachment struct {
	Name string
	Data []byte
}

// Request is a single structured-generation call.
type Request struct {
	Prompt            string
	SystemInstruction string
	// Schema, when set, must constrain the output at the generation layer.
	// Backends that cannot honor it must fail rather than return
	// mismatched data.
	Schema      *schema.InternalSchema
	Attachments []Attachment
	Options     Options
}

// Result is the backend's structured output plus usage metadata.
type Result struct {
	Data  any
	Usage map[string]any
	Model string
}

// Provider is the abstract model backend. Implementations translate every
// backend failure into a provider-kind fault before it crosses this boundary;
// the engine never sees backend-specific error types and never retries.
type Provider interface {
	GenerateStructured(ctx context.Context, req Request) (*Result, error)
}
