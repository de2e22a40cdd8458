package dashboard

import (
	"bytes"
	"fmt"

	"healthdash/warehouse"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts, in characters.
const maxSheetName = 31

// exportWorkbook writes a result table to a single-sheet XLSX workbook.
func exportWorkbook(sheetName string, t *warehouse.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if r := []rune(sheetName); len(r) > maxSheetName {
		sheetName = string(r[:maxSheetName])
	}
	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("delete default sheet: %w", err)
		}
	}
	index, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return nil, fmt.Errorf("sheet index: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, name := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
	}

	for i := range t.Rows {
		for col, name := range t.Columns {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			var value any
			switch v := t.Rows[i][name].(type) {
			case nil:
				continue
			case int64, float64, string, bool:
				value = v
			default:
				value = t.String(i, name)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
