package schema

import (
	"reflect"
	"strings"
	"testing"

	"docsift-backend/internal/shared/fault"
)

func invoiceSchema(t *testing.T) *InternalSchema {
	t.Helper()
	sch, err := Parse(map[string]any{
		"global_fields": []any{
			map[string]any{"name": "invoice_id", "type": "string", "required": true},
			map[string]any{"name": "total", "type": "number"},
			map[string]any{"name": "paid", "type": "boolean"},
		},
		"record_sets": []any{
			map[string]any{
				"name": "line_items",
				"fields": []any{
					map[string]any{"name": "description", "type": "string"},
					map[string]any{"name": "amount", "type": "number", "required": true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return sch
}

func TestValidateReportsAllViolations(t *testing.T) {
	sch := invoiceSchema(t)
	err := sch.Validate(map[string]any{
		"total": "not-a-number",
		"line_items": []any{
			map[string]any{"description": "widget"},
		},
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if fault.KindOf(err) != fault.KindSchema {
		t.Fatalf("expected schema_error, got %s", fault.KindOf(err))
	}
	msg := err.Error()
	for _, want := range []string{
		`missing required field "invoice_id"`,
		`field "total" expected type number`,
		`missing required field "amount" in record 0`,
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in error, got %q", want, msg)
		}
	}
}

func TestValidateAcceptsNumericStrings(t *testing.T) {
	sch := invoiceSchema(t)
	err := sch.Validate(map[string]any{
		"invoice_id": "INV-1",
		"total":      "42.50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateNilValuesPass(t *testing.T) {
	sch := invoiceSchema(t)
	err := sch.Validate(map[string]any{
		"invoice_id": "INV-1",
		"total":      nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeMovesExtrasToBucket(t *testing.T) {
	sch := invoiceSchema(t)
	out := sch.Normalize(map[string]any{
		"invoice_id":  "INV-1",
		"extra_field": "x",
	})
	if out["invoice_id"] != "INV-1" {
		t.Fatalf("expected invoice_id preserved, got %v", out["invoice_id"])
	}
	extra, ok := out[ExtraKey].(map[string]any)
	if !ok {
		t.Fatalf("expected extra bucket, got %v", out[ExtraKey])
	}
	if extra["extra_field"] != "x" {
		t.Fatalf("expected extra_field relocated, got %v", extra)
	}
	if _, present := out["extra_field"]; present {
		t.Fatalf("expected extra_field removed from top level")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	sch := invoiceSchema(t)
	first := sch.Normalize(map[string]any{
		"invoice_id":  "INV-1",
		"total":       "10.5",
		"paid":        "yes",
		"extra_field": "x",
		"line_items": []any{
			map[string]any{"description": "widget", "amount": "3", "note": "fragile"},
		},
	})
	second := sch.Normalize(first)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected normalize to be idempotent:\nfirst:  %#v\nsecond: %#v", first, second)
	}
	if first["total"] != 10.5 {
		t.Fatalf("expected total coerced to 10.5, got %v", first["total"])
	}
	if first["paid"] != true {
		t.Fatalf("expected paid coerced to true, got %v", first["paid"])
	}
	items, _ := first["line_items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one line item, got %v", first["line_items"])
	}
	record := items[0].(map[string]any)
	if record["amount"] != float64(3) {
		t.Fatalf("expected amount coerced to number, got %v", record["amount"])
	}
	recordExtra, ok := record[ExtraKey].(map[string]any)
	if !ok || recordExtra["note"] != "fragile" {
		t.Fatalf("expected note in record extra bucket, got %v", record[ExtraKey])
	}
}

func TestNormalizeFillsMissingFieldsWithNull(t *testing.T) {
	sch := invoiceSchema(t)
	out := sch.Normalize(map[string]any{"invoice_id": "INV-1"})
	if v, present := out["total"]; !present || v != nil {
		t.Fatalf("expected total present as null, got %v (present=%v)", v, present)
	}
	items, ok := out["line_items"].([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("expected empty line_items list, got %v", out["line_items"])
	}
}

func TestNormalizeWrapsNonObjectOutput(t *testing.T) {
	sch := invoiceSchema(t)
	out := sch.Normalize("just text")
	extra, ok := out[ExtraKey].(map[string]any)
	if !ok {
		t.Fatalf("expected extra bucket, got %v", out)
	}
	inner, ok := extra["value"].(map[string]any)
	if ok {
		t.Fatalf("expected raw value, got nested map %v", inner)
	}
	if extra["value"] != "just text" {
		t.Fatalf("expected raw value preserved, got %v", extra["value"])
	}
}

func TestNormalizeTopLevelListSingleRecordSet(t *testing.T) {
	sch, err := Parse(map[string]any{
		"record_sets": []any{
			map[string]any{
				"name": "receipts",
				"fields": []any{
					map[string]any{"name": "merchant", "type": "string"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	out := sch.Normalize([]any{
		map[string]any{"merchant": "acme"},
	})
	records, ok := out["receipts"].([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("expected list wrapped under record set, got %v", out)
	}
}
