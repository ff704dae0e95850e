package schema

import (
	"fmt"
	"sort"
	"strings"

	"docsift-backend/internal/shared/fault"
)

// FieldType is the declared type of an extracted field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// Field describes one extraction target. Immutable once parsed.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
}

// RecordSet is a repeatable structured group, e.g. invoice line items.
type RecordSet struct {
	Name   string
	Fields []Field
}

// InternalSchema is the normalized extraction target shape: scalar fields at
// the top level plus zero or more repeatable record sets. Never mutated after
// Parse returns it.
type InternalSchema struct {
	GlobalFields []Field
	RecordSets   []RecordSet
}

// Parse builds an InternalSchema from a loosely-typed mapping. Two input
// styles are accepted: the explicit internal format (global_fields /
// record_sets lists) and a lenient JSON-Schema-like object (type / properties
// / required, where array-of-object properties become record sets). Unknown
// keys are ignored rather than rejected.
func Parse(raw map[string]any) (*InternalSchema, error) {
	if raw == nil {
		return nil, fault.New(fault.KindSchema, "schema must be a mapping")
	}

	var (
		globals    []Field
		recordSets []RecordSet
		problems   []string
	)

	if list, ok := raw["global_fields"].([]any); ok {
		globals = parseFieldList(list, &problems)
	}
	if list, ok := raw["record_sets"].([]any); ok {
		recordSets = parseRecordSetList(list, &problems)
	}

	// Nothing in the explicit format: fall back to JSON-Schema style.
	if globals == nil && recordSets == nil {
		var err error
		globals, recordSets, err = parseJSONSchemaStyle(raw, &problems)
		if err != nil {
			return nil, err
		}
	}

	checkUniqueness(globals, recordSets, &problems)
	if len(problems) > 0 {
		return nil, fault.Newf(fault.KindSchema, "invalid schema: %s", strings.Join(problems, "; "))
	}
	return &InternalSchema{GlobalFields: globals, RecordSets: recordSets}, nil
}

func parseFieldList(list []any, problems *[]string) []Field {
	fields := make([]Field, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, ok := m["name"].(string)
		if !ok || name == "" {
			continue
		}
		ft, err := resolveType(m["type"])
		if err != nil {
			*problems = append(*problems, fmt.Sprintf("field %q: %v", name, err))
			continue
		}
		fields = append(fields, Field{
			Name:        name,
			Type:        ft,
			Required:    truthy(m["required"]),
			Description: stringOr(m["description"], ""),
		})
	}
	return fields
}

func parseRecordSetList(list []any, problems *[]string) []RecordSet {
	sets := make([]RecordSet, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, ok := m["name"].(string)
		if !ok || name == "" {
			continue
		}
		var fields []Field
		if fl, ok := m["fields"].([]any); ok {
			fields = parseFieldList(fl, problems)
		} else if props, ok := m["properties"].(map[string]any); ok {
			fields = parseProperties(props, stringList(m["required"]), problems)
		}
		sets = append(sets, RecordSet{Name: name, Fields: fields})
	}
	return sets
}

func parseJSONSchemaStyle(raw map[string]any, problems *[]string) ([]Field, []RecordSet, error) {
	// Top-level array schema: items become a single record set.
	if isArrayType(raw["type"]) {
		items, ok := raw["items"].(map[string]any)
		if !ok {
			return nil, nil, fault.New(fault.KindSchema, "array schema requires an 'items' object")
		}
		name := stringOr(raw["title"], "items")
		fields := parseProperties(mapOr(items["properties"]), stringList(items["required"]), problems)
		return nil, []RecordSet{{Name: name, Fields: fields}}, nil
	}

	if t, ok := raw["type"].(string); ok && !strings.EqualFold(t, "object") {
		if _, hasProps := raw["properties"]; !hasProps {
			return nil, nil, fault.New(fault.KindSchema, "top-level schema must be an object")
		}
	}

	props := mapOr(raw["properties"])
	required := stringList(raw["required"])
	var globals []Field
	var recordSets []RecordSet

	for _, name := range sortedKeys(props) {
		spec, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		// Array-of-objects properties are repeatable groups, not scalar fields.
		if isArrayType(spec["type"]) {
			if items, ok := spec["items"].(map[string]any); ok {
				if itemProps, ok := items["properties"].(map[string]any); ok {
					recordSets = append(recordSets, RecordSet{
						Name:   name,
						Fields: parseProperties(itemProps, stringList(items["required"]), problems),
					})
					continue
				}
			}
		}
		ft, err := resolveType(spec["type"])
		if err != nil {
			*problems = append(*problems, fmt.Sprintf("field %q: %v", name, err))
			continue
		}
		globals = append(globals, Field{
			Name:        name,
			Type:        ft,
			Required:    contains(required, name) || truthy(spec["required"]),
			Description: stringOr(spec["description"], ""),
		})
	}

	// A dedicated record_sets/records section is also honored in this style.
	for _, key := range []string{"record_sets", "records"} {
		if list, ok := raw[key].([]any); ok {
			recordSets = append(recordSets, parseRecordSetList(list, problems)...)
		}
	}

	return globals, recordSets, nil
}

func parseProperties(props map[string]any, required []string, problems *[]string) []Field {
	fields := make([]Field, 0, len(props))
	for _, name := range sortedKeys(props) {
		spec, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		ft, err := resolveType(spec["type"])
		if err != nil {
			*problems = append(*problems, fmt.Sprintf("field %q: %v", name, err))
			continue
		}
		fields = append(fields, Field{
			Name:        name,
			Type:        ft,
			Required:    contains(required, name) || truthy(spec["required"]),
			Description: stringOr(spec["description"], ""),
		})
	}
	return fields
}

// resolveType maps a raw type value to a FieldType. Absent types default to
// string; type lists pick the first non-null entry; anything else is
// unresolvable. Unknown type names are kept verbatim for forward compatibility.
func resolveType(raw any) (FieldType, error) {
	switch v := raw.(type) {
	case nil:
		return TypeString, nil
	case string:
		if v == "" {
			return TypeString, nil
		}
		return FieldType(strings.ToLower(v)), nil
	case []any:
		var chosen string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if chosen == "" {
				chosen = s
			}
			if !strings.EqualFold(s, "null") {
				chosen = s
				break
			}
		}
		if chosen == "" {
			return "", fmt.Errorf("no resolvable type")
		}
		return FieldType(strings.ToLower(chosen)), nil
	default:
		return "", fmt.Errorf("no resolvable type")
	}
}

func checkUniqueness(globals []Field, sets []RecordSet, problems *[]string) {
	seen := make(map[string]bool, len(globals))
	for _, f := range globals {
		if seen[f.Name] {
			*problems = append(*problems, fmt.Sprintf("duplicate field %q", f.Name))
		}
		seen[f.Name] = true
	}
	seenSets := make(map[string]bool, len(sets))
	for _, rs := range sets {
		if seenSets[rs.Name] {
			*problems = append(*problems, fmt.Sprintf("duplicate record set %q", rs.Name))
		}
		seenSets[rs.Name] = true
		inner := make(map[string]bool, len(rs.Fields))
		for _, f := range rs.Fields {
			if inner[f.Name] {
				*problems = append(*problems, fmt.Sprintf("duplicate field %q in record set %q", f.Name, rs.Name))
			}
			inner[f.Name] = true
		}
	}
}

func isArrayType(raw any) bool {
	switch v := raw.(type) {
	case string:
		return strings.EqualFold(v, "array")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "array") {
				return true
			}
		}
	}
	return false
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func mapOr(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// sortedKeys gives deterministic field order for property maps, which have no
// inherent order after JSON/YAML decoding.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
