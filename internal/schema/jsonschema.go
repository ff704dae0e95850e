package schema

// JSONSchema renders the schema as a JSON-Schema-style mapping for providers
// that constrain generation with one. Dates travel as formatted strings.
// Additional properties stay allowed: normalization relocates extras instead
// of the generator rejecting them.
func (s *InternalSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.GlobalFields)+len(s.RecordSets))
	var required []string

	for _, f := range s.GlobalFields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}

	for _, rs := range s.RecordSets {
		itemProps := make(map[string]any, len(rs.Fields))
		var itemRequired []string
		for _, f := range rs.Fields {
			itemProps[f.Name] = fieldSchema(f)
			if f.Required {
				itemRequired = append(itemRequired, f.Name)
			}
		}
		items := map[string]any{
			"type":       "object",
			"properties": itemProps,
		}
		if len(itemRequired) > 0 {
			items["required"] = itemRequired
		}
		props[rs.Name] = map[string]any{
			"type":  "array",
			"items": items,
		}
	}

	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	out := map[string]any{"type": jsonType(f.Type)}
	if f.Type == TypeDate {
		out["format"] = "date"
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}

func jsonType(t FieldType) string {
	switch t {
	case TypeString, TypeDate:
		return "string"
	case TypeNumber:
		return "number"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	default:
		return string(t)
	}
}
