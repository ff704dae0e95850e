package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"

	"docsift-backend/internal/schema"
)

func TestToResponseSchema(t *testing.T) {
	sch, err := schema.Parse(map[string]any{
		"global_fields": []any{
			map[string]any{"name": "invoice_id", "type": "string", "required": true},
			map[string]any{"name": "issued", "type": "date"},
			map[string]any{"name": "total", "type": "number"},
		},
		"record_sets": []any{
			map[string]any{"name": "line_items", "fields": []any{
				map[string]any{"name": "amount", "type": "number", "required": true},
			}},
		},
	})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}

	out := toResponseSchema(sch)
	if out.Type != genai.TypeObject {
		t.Fatalf("expected object root, got %v", out.Type)
	}
	if len(out.Required) != 1 || out.Required[0] != "invoice_id" {
		t.Fatalf("unexpected required list: %v", out.Required)
	}

	issued := out.Properties["issued"]
	if issued == nil || issued.Type != genai.TypeString || issued.Format != "date" {
		t.Fatalf("expected date as formatted string, got %+v", issued)
	}

	items := out.Properties["line_items"]
	if items == nil || items.Type != genai.TypeArray {
		t.Fatalf("expected array property, got %+v", items)
	}
	if items.Items == nil || items.Items.Type != genai.TypeObject {
		t.Fatalf("expected object items, got %+v", items.Items)
	}
	if len(items.Items.Required) != 1 || items.Items.Required[0] != "amount" {
		t.Fatalf("unexpected item required list: %v", items.Items.Required)
	}

	// Unknown declared types fall back to string rather than failing.
	if fieldType(schema.FieldType("uuid")) != genai.TypeString {
		t.Fatalf("expected unknown types to map to string")
	}
}
