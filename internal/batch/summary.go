package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	documentsSheet = "Documents"
	cardsSheet     = "Cards"
)

// WriteSummaryXLSX writes a workbook describing one or more batch reports:
// a Documents sheet with one row per input and a Cards sheet with one row per
// extracted token.
func WriteSummaryXLSX(path string, reports ...Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes Documents
	if err := f.SetSheetName("Sheet1", documentsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(cardsSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	docHeaders := []string{"Run", "File", "Output", "Status", "Strategy", "Pages", "Cards", "Warnings", "Error"}
	writeRow(f, documentsSheet, 1, toAny(docHeaders))
	writeRow(f, cardsSheet, 1, []any{"File", "Position", "Card"})

	docRow, cardRow := 2, 2
	for _, rep := range reports {
		for _, d := range rep.Documents {
			writeRow(f, documentsSheet, docRow, []any{
				rep.RunID,
				filepath.Base(d.Path),
				d.OutputPath,
				string(d.Status),
				string(d.Strategy),
				d.Pages,
				len(d.Tokens),
				truncate(strings.Join(d.Warnings, "; "), 500),
				d.Err,
			})
			docRow++
			for i, tok := range d.Tokens {
				writeRow(f, cardsSheet, cardRow, []any{filepath.Base(d.Path), i + 1, tok})
				cardRow++
			}
		}
	}

	_ = f.SetColWidth(documentsSheet, "A", "A", 38) // run id
	_ = f.SetColWidth(documentsSheet, "B", "C", 40) // file, output
	_ = f.SetColWidth(documentsSheet, "D", "G", 10)
	_ = f.SetColWidth(documentsSheet, "H", "I", 60)
	_ = f.SetColWidth(cardsSheet, "A", "A", 40)
	_ = f.SetColWidth(cardsSheet, "C", "C", 24)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// truncate caps s at n bytes, cutting on a rune boundary and marking the cut.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n - 1
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
