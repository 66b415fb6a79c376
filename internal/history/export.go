package history

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"agri-backend/internal/calc"

	"github.com/xuri/excelize/v2"
)

const sheetName = "History"

var exportHeader = []string{"Date", "Type", "Title", "Description", "Amount", "Zone"}

func exportRow(a Activity) []string {
	return []string{
		a.Date.Format("2006-01-02"),
		string(a.Kind),
		a.Title,
		a.Description,
		calc.Money(a.Amount),
		a.Zone,
	}
}

// WriteCSV renders the timeline with a header row.
func WriteCSV(activities []Activity) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, a := range activities {
		if err := w.Write(exportRow(a)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders the timeline as a one-sheet workbook. Amounts are numeric cells.
func WriteXLSX(activities []Activity) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, a := range activities {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			a.Date.Format("2006-01-02"),
			string(a.Kind),
			a.Title,
			a.Description,
			a.Amount.Round(2).InexactFloat64(),
			a.Zone,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
