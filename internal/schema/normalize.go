package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"docsift-backend/internal/shared/fault"
)

// ExtraKey is the reserved bucket for output fields not declared in the schema.
const ExtraKey = "extra"

// Validate checks provider output against the schema: required fields present
// at every level, and gross type compatibility. Every violation found is
// reported in one error rather than stopping at the first.
func (s *InternalSchema) Validate(data any) error {
	if s == nil {
		return nil
	}
	m, err := s.ensureMap(data)
	if err != nil {
		return err
	}

	var violations []string
	for _, f := range s.GlobalFields {
		value, present := m[f.Name]
		if f.Required && !present {
			violations = append(violations, fmt.Sprintf("missing required field %q", f.Name))
			continue
		}
		if present && !typeCompatible(f.Type, value) {
			violations = append(violations, fmt.Sprintf("field %q expected type %s", f.Name, f.Type))
		}
	}

	for _, rs := range s.RecordSets {
		raw, present := m[rs.Name]
		if !present || raw == nil {
			continue
		}
		records, ok := raw.([]any)
		if !ok {
			violations = append(violations, fmt.Sprintf("record set %q must be a list", rs.Name))
			continue
		}
		for i, entry := range records {
			record, ok := entry.(map[string]any)
			if !ok {
				violations = append(violations, fmt.Sprintf("record %d in %q must be an object", i, rs.Name))
				continue
			}
			for _, f := range rs.Fields {
				value, present := record[f.Name]
				if f.Required && !present {
					violations = append(violations, fmt.Sprintf("missing required field %q in record %d of %q", f.Name, i, rs.Name))
					continue
				}
				if present && !typeCompatible(f.Type, value) {
					violations = append(violations, fmt.Sprintf("field %q in record %d of %q expected type %s", f.Name, i, rs.Name, f.Type))
				}
			}
		}
	}

	if len(violations) > 0 {
		return fault.Newf(fault.KindSchema, "output validation failed: %s", strings.Join(violations, "; "))
	}
	return nil
}

// Normalize reshapes provider output to the schema: absent fields become null,
// values are coerced to the declared type when unambiguous, and undeclared
// fields move into the reserved extra bucket instead of being dropped. It is
// total (never fails) and idempotent.
func (s *InternalSchema) Normalize(data any) map[string]any {
	if s == nil {
		if m, ok := data.(map[string]any); ok {
			return m
		}
		return map[string]any{ExtraKey: map[string]any{"value": data}}
	}

	m, err := s.ensureMap(data)
	if err != nil {
		// Unshapeable output still yields a schema-shaped result.
		m = map[string]any{ExtraKey: map[string]any{"value": data}}
	}

	normalized := make(map[string]any, len(s.GlobalFields)+len(s.RecordSets)+1)
	extra := map[string]any{}

	for _, f := range s.GlobalFields {
		if value, ok := m[f.Name]; ok {
			normalized[f.Name] = coerce(f.Type, value)
		} else {
			normalized[f.Name] = nil
		}
	}

	for _, rs := range s.RecordSets {
		records, _ := m[rs.Name].([]any)
		out := make([]any, 0, len(records))
		for _, entry := range records {
			record, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, normalizeRecord(rs, record))
		}
		normalized[rs.Name] = out
	}

	// Relocate undeclared keys. An existing extra bucket is merged, not
	// nested, so repeated normalization is stable.
	for key, value := range m {
		if _, declared := normalized[key]; declared {
			continue
		}
		if key == ExtraKey {
			if prev, ok := value.(map[string]any); ok {
				for k, v := range prev {
					extra[k] = v
				}
				continue
			}
		}
		extra[key] = value
	}
	if len(extra) > 0 {
		normalized[ExtraKey] = extra
	}
	return normalized
}

func normalizeRecord(rs RecordSet, record map[string]any) map[string]any {
	out := make(map[string]any, len(rs.Fields)+1)
	extra := map[string]any{}
	for _, f := range rs.Fields {
		if value, ok := record[f.Name]; ok {
			out[f.Name] = coerce(f.Type, value)
		} else {
			out[f.Name] = nil
		}
	}
	for key, value := range record {
		if _, declared := out[key]; declared {
			continue
		}
		if key == ExtraKey {
			if prev, ok := value.(map[string]any); ok {
				for k, v := range prev {
					extra[k] = v
				}
				continue
			}
		}
		extra[key] = value
	}
	if len(extra) > 0 {
		out[ExtraKey] = extra
	}
	return out
}

// ensureMap admits a top-level list when the schema is exactly one record set,
// wrapping it under that record set's name.
func (s *InternalSchema) ensureMap(data any) (map[string]any, error) {
	switch v := data.(type) {
	case map[string]any:
		return v, nil
	case []any:
		if len(s.GlobalFields) == 0 && len(s.RecordSets) == 1 {
			return map[string]any{s.RecordSets[0].Name: v}, nil
		}
	}
	return nil, fault.New(fault.KindSchema, "provider output must be an object")
}

// typeCompatible is deliberately lenient: the upstream generator is
// probabilistic, so only gross mismatches are rejected. Numeric strings are
// accepted for number/integer fields since normalization coerces them.
func typeCompatible(t FieldType, value any) bool {
	if value == nil {
		return true
	}
	switch t {
	case TypeString, TypeDate:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return true
		case string:
			_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return err == nil
		}
		return false
	case TypeInteger:
		switch v := value.(type) {
		case float64:
			return v == math.Trunc(v)
		case string:
			_, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			return err == nil
		}
		return false
	case TypeBoolean:
		_, ok := value.(bool)
		if ok {
			return true
		}
		s, ok := value.(string)
		return ok && isBoolString(s)
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	default:
		// Unknown declared types accept anything.
		return true
	}
}

// coerce converts a value to its declared type when unambiguous; anything
// ambiguous passes through untouched.
func coerce(t FieldType, value any) any {
	if value == nil {
		return nil
	}
	switch t {
	case TypeString, TypeDate:
		switch v := value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
		return value
	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
		return value
	case TypeInteger:
		switch v := value.(type) {
		case float64:
			return math.Trunc(v)
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return float64(n)
			}
		}
		return value
	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v
		case string:
			if isBoolString(v) {
				return parseBoolString(v)
			}
		case float64:
			return v != 0
		}
		return value
	default:
		return value
	}
}

func isBoolString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "1", "0", "yes", "no", "y", "n":
		return true
	}
	return false
}

func parseBoolString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
