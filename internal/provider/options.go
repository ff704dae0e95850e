package provider

// Options carries per-call generation settings. Zero values mean "not set".
type Options struct {
	ModelName       string
	Temperature     *float64
	MaxOutputTokens *int
	Extra           map[string]any
}

// Merge layers override on top of o field by field: a set value in override
// wins, an unset one never erases a lower-precedence value.
func (o Options) Merge(override Options) Options {
	out := o
	if override.ModelName != "" {
		out.ModelName = override.ModelName
	}
	if override.Temperature != nil {
		out.Temperature = override.Temperature
	}
	if override.MaxOutputTokens != nil {
		out.MaxOutputTokens = override.MaxOutputTokens
	}
	if len(override.Extra) > 0 {
		merged := make(map[string]any, len(o.Extra)+len(override.Extra))
		for k, v := range o.Extra {
			merged[k] = v
		}
		for k, v := range override.Extra {
			merged[k] = v
		}
		out.Extra = merged
	}
	return out
}

// Float64 is a convenience for building option literals.
func Float64(v float64) *float64 { return &v }

// Int is a convenience for building option literals.
func Int(v int) *int { return &v }
