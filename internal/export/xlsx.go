package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	// XLSXFilename is the suggested download name.
	XLSXFilename = "historial_gastos_gasolina.xlsx"
	// SheetName is the worksheet the history is written to.
	SheetName = "Gasolina"
)

// WriteXLSX writes the report as a workbook with the history table followed
// by the summary block two rows below it.
func WriteXLSX(w io.Writer, r Report) error {
	if len(r.Entries) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	for col, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "F1", styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "F", 20); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	for i, e := range r.Entries {
		row := i + 2
		values := []any{e.ID, e.Date.String(), e.Liters, e.PricePerLiter, e.TotalCost, e.Odometer}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
		if err := styleRow(f, row, styles); err != nil {
			return err
		}
	}

	summaryRow := len(r.Entries) + 3
	title, _ := excelize.CoordinatesToCellName(1, summaryRow)
	if err := f.SetCellValue(SheetName, title, "Resumen"); err != nil {
		return fmt.Errorf("set summary title: %w", err)
	}
	if err := f.SetCellStyle(SheetName, title, title, styles.summary); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	for i, line := range r.SummaryLines() {
		row := summaryRow + 1 + i
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(SheetName, label, line.Label); err != nil {
			return fmt.Errorf("set %s: %w", label, err)
		}
		if err := f.SetCellValue(SheetName, value, line.Value); err != nil {
			return fmt.Errorf("set %s: %w", value, err)
		}
		if err := f.SetCellStyle(SheetName, value, value, styles.places(line.Places)); err != nil {
			return fmt.Errorf("style %s: %w", value, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type xlsxStyles struct {
	header, summary, text   int
	integer, twoDP, threeDP int
}

func (s xlsxStyles) places(n int32) int {
	switch n {
	case 0:
		return s.integer
	case 3:
		return s.threeDP
	default:
		return s.twoDP
	}
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "CCCCCC", Style: 1},
		{Type: "right", Color: "CCCCCC", Style: 1},
		{Type: "top", Color: "CCCCCC", Style: 1},
		{Type: "bottom", Color: "CCCCCC", Style: 1},
	}
	numFmt := func(format string) *excelize.Style {
		return &excelize.Style{Border: border, CustomNumFmt: &format}
	}

	var s xlsxStyles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FDE68A"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    border,
		}},
		{&s.summary, &excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
		}},
		{&s.text, &excelize.Style{Border: border}},
		{&s.integer, numFmt("0")},
		{&s.twoDP, numFmt("0.00")},
		{&s.threeDP, numFmt("0.000")},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

// styleRow applies per-column number formats to one history row.
func styleRow(f *excelize.File, row int, s xlsxStyles) error {
	formats := []int{s.integer, s.text, s.twoDP, s.threeDP, s.twoDP, s.integer}
	for col, style := range formats {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("style %s: %w", cell, err)
		}
	}
	return nil
}
