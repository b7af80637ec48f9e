package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// bom makes spreadsheet applications detect UTF-8 for the accented headers.
const bom = "\ufeff"

// CSVFilename is the suggested download name.
const CSVFilename = "historial_gastos_gasolina.csv"

// WriteCSV writes the report as semicolon separated values, the separator
// Spanish-locale spreadsheets expect when the decimal mark is a comma.
func WriteCSV(w io.Writer, r Report) error {
	if len(r.Entries) == 0 {
		return ErrNothingToExport
	}
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(r.Rows()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
