package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	topSheet     = "TopK"
	sourcesSheet = "Sources"
)

// XLSXSink writes a workbook with the ranking on one sheet and per-source
// token counts on another.
type XLSXSink struct{}

func (XLSXSink) Write(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", topSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	rows := [][]any{{"rank", "count", "token"}}
	for i, e := range r.Entries {
		rows = append(rows, []any{i + 1, e.Count, e.Token})
	}
	if err := writeRows(f, topSheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(sourcesSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	rows = [][]any{{"source", "tokens", "language"}}
	for _, s := range r.Sources {
		rows = append(rows, []any{s.Name, s.Tokens, s.Language})
	}
	if err := writeRows(f, sourcesSheet, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
