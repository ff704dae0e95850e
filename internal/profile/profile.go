package profile

import (
	"fmt"

	"docsift-backend/internal/provider"
	"docsift-backend/internal/schema"
	"docsift-backend/internal/shared/fault"
)

// Mode is what the profile asks the model to do.
type Mode string

const (
	ModeExtract  Mode = "extract"
	ModeDescribe Mode = "describe"
	ModeClassify Mode = "classify"
)

// MultiMode is the multi-document policy.
type MultiMode string

const (
	PerFile   MultiMode = "per_file"
	Aggregate MultiMode = "aggregate"
	Both      MultiMode = "both"
)

// ValidMultiMode reports whether m is a recognized policy.
func ValidMultiMode(m MultiMode) bool {
	switch m {
	case PerFile, Aggregate, Both:
		return true
	}
	return false
}

// Profile is a named, reusable extraction recipe. Immutable once resolved.
type Profile struct {
	ID                string
	Mode              Mode
	Schema            *schema.InternalSchema
	Prompt            string
	SystemInstruction string
	MultiDoc          MultiMode
	Options           *provider.Options
	// Params is an open mapping reserved for forward-compatible extensions.
	Params map[string]any
}

// build materializes a Profile from a raw store definition. Sub-references
// (schema/prompt/system_instruction given as paths) are dereferenced through
// the store that supplied the definition.
func build(id string, def map[string]any, store Store) (*Profile, error) {
	p := &Profile{
		ID:       id,
		Mode:     ModeExtract,
		MultiDoc: PerFile,
	}
	if v, ok := def["id"].(string); ok && v != "" {
		p.ID = v
	} else if v, ok := def["name"].(string); ok && v != "" {
		p.ID = v
	}
	if v, ok := def["mode"].(string); ok && v != "" {
		p.Mode = Mode(v)
	}
	if v := firstString(def, "multi_doc_behavior", "multi"); v != "" {
		p.MultiDoc = MultiMode(v)
		if !ValidMultiMode(p.MultiDoc) {
			return nil, fault.Newf(fault.KindProfile, "profile %q: invalid multi_doc_behavior %q", p.ID, v)
		}
	}

	sch, err := resolveSchemaValue(def["schema"], store)
	if err != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("profile %q: schema", p.ID), err)
	}
	p.Schema = sch

	if p.Prompt, err = resolveTextValue(def["prompt"], store); err != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("profile %q: prompt", p.ID), err)
	}
	if p.SystemInstruction, err = resolveTextValue(def["system_instruction"], store); err != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("profile %q: system_instruction", p.ID), err)
	}

	if opts := firstMap(def, "options", "provider_options", "generation_config"); opts != nil {
		p.Options = optionsFromMap(opts)
	}
	if params, ok := def["params"].(map[string]any); ok {
		p.Params = params
	}
	return p, nil
}

// resolveSchemaValue accepts an inline mapping, a path reference into the
// store, or nil for an explicitly schema-less profile.
func resolveSchemaValue(raw any, store Store) (*schema.InternalSchema, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return schema.Parse(v)
	case string:
		data, ok, err := store.ReadRef(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("schema reference %q not found", v)
		}
		m, err := decodeMapping(data)
		if err != nil {
			return nil, fmt.Errorf("schema reference %q: %w", v, err)
		}
		return schema.Parse(m)
	default:
		return nil, fmt.Errorf("schema must be a mapping or a path reference")
	}
}

// resolveTextValue treats a string as a store reference when it resolves to a
// stored file, and as literal content otherwise.
func resolveTextValue(raw any, store Store) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		if data, ok, err := store.ReadRef(v); err != nil {
			return "", err
		} else if ok {
			return string(data), nil
		}
		return v, nil
	default:
		return "", fmt.Errorf("value must be a string or a path reference")
	}
}

func optionsFromMap(m map[string]any) *provider.Options {
	opts := &provider.Options{
		ModelName: firstString(m, "model", "model_name"),
	}
	if f, ok := floatValue(m["temperature"]); ok {
		opts.Temperature = &f
	}
	if n, ok := intValue(m["max_output_tokens"]); ok {
		opts.MaxOutputTokens = &n
	}
	if extra, ok := m["extra"].(map[string]any); ok {
		opts.Extra = extra
	}
	return opts
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v
		}
	}
	return nil
}

// YAML decodes numbers as int, JSON as float64; accept both.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
