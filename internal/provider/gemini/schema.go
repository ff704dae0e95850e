package gemini

import (
	"github.com/google/generative-ai-go/genai"

	"docsift-backend/internal/schema"
)

// toResponseSchema converts an InternalSchema to the constrained schema shape
// Gemini accepts for structured output. Dates travel as formatted strings.
func toResponseSchema(s *schema.InternalSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.GlobalFields)+len(s.RecordSets))
	var required []string

	for _, f := range s.GlobalFields {
		props[f.Name] = fieldToSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}

	for _, rs := range s.RecordSets {
		itemProps := make(map[string]*genai.Schema, len(rs.Fields))
		var itemRequired []string
		for _, f := range rs.Fields {
			itemProps[f.Name] = fieldToSchema(f)
			if f.Required {
				itemRequired = append(itemRequired, f.Name)
			}
		}
		props[rs.Name] = &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: itemProps,
				Required:   itemRequired,
			},
		}
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}

func fieldToSchema(f schema.Field) *genai.Schema {
	out := &genai.Schema{
		Type:        fieldType(f.Type),
		Description: f.Description,
	}
	if f.Type == schema.TypeDate {
		out.Format = "date"
	}
	return out
}

func fieldType(t schema.FieldType) genai.Type {
	switch t {
	case schema.TypeString, schema.TypeDate:
		return genai.TypeString
	case schema.TypeNumber:
		return genai.TypeNumber
	case schema.TypeInteger:
		return genai.TypeInteger
	case schema.TypeBoolean:
		return genai.TypeBoolean
	case schema.TypeObject:
		return genai.TypeObject
	case schema.TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
