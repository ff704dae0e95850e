package engine

import (
	"encoding/json"

	"docsift-backend/internal/shared/fault"
)

// Meta describes the provenance of one extraction result.
type Meta struct {
	Model      string         `json:"model"`
	Usage      map[string]any `json:"usage,omitempty"`
	SourceName string         `json:"source_name"`
	Mode       string         `json:"mode"`
	Profile    string         `json:"profile,omitempty"`
}

// Result is one normalized extraction output.
type Result struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// FileResult is a per-document slot in per_file mode: either a result or an
// error marker, never both. A failed document does not abort its siblings.
type FileResult struct {
	SourceName string
	Result     *Result
	Err        error
}

// Failed reports whether this slot carries an error marker.
func (r FileResult) Failed() bool { return r.Err != nil }

func (r FileResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]any{
			"source_name": r.SourceName,
			"error": map[string]any{
				"type":    string(fault.KindOf(r.Err)),
				"message": fault.MessageOf(r.Err),
			},
		})
	}
	return json.Marshal(r.Result)
}

// MultiResult is the full output of one extract call; its shape follows the
// multi-document policy.
type MultiResult struct {
	PerFile   []FileResult `json:"per_file,omitempty"`
	Aggregate *Result      `json:"aggregate,omitempty"`
}
