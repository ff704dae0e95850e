package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"docsift-backend/internal/engine"
	"docsift-backend/internal/schema"
	"docsift-backend/internal/shared/fault"
	"docsift-backend/internal/shared/util"
)

// XLSX renders a MultiResult as a workbook: one "Documents" sheet with global
// fields per document, plus one sheet per record set with its flattened rows.
// The schema drives the column layout; without one only raw data and errors
// are emitted.
func XLSX(res *engine.MultiResult, sch *schema.InternalSchema) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeDocumentsSheet(f, res, sch); err != nil {
		return nil, err
	}
	if sch != nil {
		for _, rs := range sch.RecordSets {
			if err := writeRecordSetSheet(f, res, rs); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fault.Wrap(fault.KindExtraction, "write workbook", err)
	}
	return buf.Bytes(), nil
}

func writeDocumentsSheet(f *excelize.File, res *engine.MultiResult, sch *schema.InternalSchema) error {
	const sheet = "Documents"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fault.Wrap(fault.KindExtraction, "rename sheet", err)
	}

	headers := []string{"source", "status"}
	var fieldNames []string
	if sch != nil {
		for _, field := range sch.GlobalFields {
			fieldNames = append(fieldNames, field.Name)
		}
	}
	headers = append(headers, fieldNames...)
	if err := writeRow(f, sheet, 1, toAnys(headers)); err != nil {
		return err
	}

	row := 2
	for _, slot := range res.PerFile {
		values := []any{slot.SourceName}
		if slot.Failed() {
			values = append(values, fmt.Sprintf("error: %s", fault.MessageOf(slot.Err)))
			values = append(values, make([]any, len(fieldNames))...)
		} else {
			values = append(values, "ok")
			values = append(values, fieldValues(slot.Result.Data, fieldNames)...)
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}

	if res.Aggregate != nil {
		values := []any{res.Aggregate.Meta.SourceName, "aggregate"}
		values = append(values, fieldValues(res.Aggregate.Data, fieldNames)...)
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	return nil
}

func writeRecordSetSheet(f *excelize.File, res *engine.MultiResult, rs schema.RecordSet) error {
	sheet, err := util.SanitizeSheetName(rs.Name)
	if err != nil {
		return fault.Wrap(fault.KindExtraction, "sheet name", err)
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fault.Wrap(fault.KindExtraction, "create sheet", err)
	}

	fieldNames := make([]string, 0, len(rs.Fields))
	for _, field := range rs.Fields {
		fieldNames = append(fieldNames, field.Name)
	}
	headers := append([]string{"source"}, fieldNames...)
	if err := writeRow(f, sheet, 1, toAnys(headers)); err != nil {
		return err
	}

	row := 2
	emit := func(sourceName string, data any) error {
		m, ok := data.(map[string]any)
		if !ok {
			return nil
		}
		records, _ := m[rs.Name].([]any)
		for _, entry := range records {
			record, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			values := []any{sourceName}
			for _, name := range fieldNames {
				values = append(values, cellValue(record[name]))
			}
			if err := writeRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
		return nil
	}

	for _, slot := range res.PerFile {
		if slot.Failed() {
			continue
		}
		if err := emit(slot.SourceName, slot.Result.Data); err != nil {
			return err
		}
	}
	if res.Aggregate != nil {
		if err := emit(res.Aggregate.Meta.SourceName, res.Aggregate.Data); err != nil {
			return err
		}
	}
	return nil
}

func fieldValues(data any, names []string) []any {
	values := make([]any, 0, len(names))
	m, _ := data.(map[string]any)
	for _, name := range names {
		if m == nil {
			values = append(values, nil)
			continue
		}
		values = append(values, cellValue(m[name]))
	}
	return values
}

// cellValue keeps scalars as-is and renders composites as compact strings so
// every value fits a cell.
func cellValue(v any) any {
	switch v.(type) {
	case nil, string, float64, bool, int:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fault.Wrap(fault.KindExtraction, "cell coordinates", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fault.Wrap(fault.KindExtraction, "set cell", err)
		}
	}
	return nil
}

func toAnys(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
