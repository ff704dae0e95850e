package provider

import "context"

// StubProvider returns schema-shaped null payloads. It exists for local runs
// and wiring tests where no real backend is configured.
type StubProvider struct {
	ModelName string
}

func (p StubProvider) GenerateStructured(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := p.ModelName
	if model == "" {
		model = "stub-model"
	}

	data := map[string]any{}
	if req.Schema != nil {
		for _, f := range req.Schema.GlobalFields {
			data[f.Name] = nil
		}
		for _, rs := range req.Schema.RecordSets {
			data[rs.Name] = []any{}
		}
	}
	return &Result{
		Data:  data,
		Usage: map[string]any{"note": "stub"},
		Model: model,
	}, nil
}
