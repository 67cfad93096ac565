package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

// XLSXRenderer builds single-sheet workbooks from extracted tables. Cells
// that parse as numbers are written as numbers so spreadsheet formulas work
// on the export without manual conversion.
type XLSXRenderer struct{}

func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

func (r *XLSXRenderer) Spreadsheet(table domain.ExtractedTable) ([]byte, error) {
	if len(table.Cells) == 0 {
		return nil, fmt.Errorf("render spreadsheet: empty grid")
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := fmt.Sprintf("Page %d", table.Page)
	if table.Page <= 0 {
		sheet = "Table"
	}
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}

	for rowIdx, row := range table.Cells {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return nil, fmt.Errorf("render spreadsheet: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, cellValue(value)); err != nil {
				return nil, fmt.Errorf("render spreadsheet: %w", err)
			}
		}
	}

	if len(table.Cells) >= 2 {
		if err := boldHeader(file, sheet, len(table.Cells[0])); err != nil {
			return nil, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func boldHeader(file *excelize.File, sheet string, cols int) error {
	if cols == 0 {
		return nil
	}
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("render spreadsheet: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return fmt.Errorf("render spreadsheet: %w", err)
	}
	if err := file.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("render spreadsheet: %w", err)
	}
	return nil
}

// cellValue preserves leading-zero strings like "007" as text and converts
// everything else that parses cleanly into a number.
func cellValue(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	if len(trimmed) > 1 && trimmed[0] == '0' && !strings.ContainsAny(trimmed, ".,") {
		return value
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	return value
}
