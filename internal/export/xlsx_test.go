package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"docsift-backend/internal/engine"
	"docsift-backend/internal/schema"
	"docsift-backend/internal/shared/fault"
)

func exportSchema(t *testing.T) *schema.InternalSchema {
	t.Helper()
	sch, err := schema.Parse(map[string]any{
		"global_fields": []any{
			map[string]any{"name": "invoice_id", "type": "string"},
			map[string]any{"name": "total", "type": "number"},
		},
		"record_sets": []any{
			map[string]any{"name": "line_items", "fields": []any{
				map[string]any{"name": "description", "type": "string"},
				map[string]any{"name": "amount", "type": "number"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return sch
}

func TestXLSXWorkbookLayout(t *testing.T) {
	sch := exportSchema(t)
	res := &engine.MultiResult{
		PerFile: []engine.FileResult{
			{
				SourceName: "a.pdf",
				Result: &engine.Result{
					Data: map[string]any{
						"invoice_id": "INV-1",
						"total":      42.5,
						"line_items": []any{
							map[string]any{"description": "widget", "amount": 40.0},
							map[string]any{"description": "tax", "amount": 2.5},
						},
					},
					Meta: engine.Meta{SourceName: "a.pdf", Mode: "per_file"},
				},
			},
			{
				SourceName: "broken.pdf",
				Err:        fault.New(fault.KindDocument, "cannot load"),
			},
		},
	}

	data, err := XLSX(res, sch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Documents" || sheets[1] != "line_items" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	check := func(sheet, cell, want string) {
		t.Helper()
		got, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("get %s!%s: %v", sheet, cell, err)
		}
		if got != want {
			t.Fatalf("%s!%s: expected %q, got %q", sheet, cell, want, got)
		}
	}

	check("Documents", "A1", "source")
	check("Documents", "C1", "invoice_id")
	check("Documents", "A2", "a.pdf")
	check("Documents", "B2", "ok")
	check("Documents", "C2", "INV-1")
	check("Documents", "D2", "42.5")
	check("Documents", "A3", "broken.pdf")
	check("Documents", "B3", "error: cannot load")

	check("line_items", "A1", "source")
	check("line_items", "B1", "description")
	check("line_items", "A2", "a.pdf")
	check("line_items", "B2", "widget")
	check("line_items", "C3", "2.5")
}

func TestXLSXAggregateRow(t *testing.T) {
	sch := exportSchema(t)
	res := &engine.MultiResult{
		Aggregate: &engine.Result{
			Data: map[string]any{"invoice_id": "INV-9", "total": 10.0},
			Meta: engine.Meta{SourceName: "a.pdf, b.pdf", Mode: "aggregate"},
		},
	}

	data, err := XLSX(res, sch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Documents", "B2")
	if err != nil {
		t.Fatalf("get cell: %v", err)
	}
	if got != "aggregate" {
		t.Fatalf("expected aggregate row, got %q", got)
	}
}

func TestXLSXWithoutSchema(t *testing.T) {
	res := &engine.MultiResult{
		PerFile: []engine.FileResult{
			{SourceName: "a.txt", Result: &engine.Result{Data: map[string]any{"x": 1}}},
		},
	}
	data, err := XLSX(res, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Documents" {
		t.Fatalf("expected only Documents sheet, got %v", sheets)
	}
}
