package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type worksheet struct {
	name string
	rows [][]string
}

// readWorkbook loads the rows of the first n sheets in workbook order, or of every
// sheet when n <= 0. Rows are returned as stored, blank ones included.
func readWorkbook(content []byte, n int) ([]worksheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if n > 0 && n < len(names) {
		names = names[:n]
	}
	sheets := make([]worksheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", name, err)
		}
		sheets = append(sheets, worksheet{name: name, rows: rows})
	}
	return sheets, nil
}

// readExcelRows returns the rows of the first sheet.
func readExcelRows(content []byte) ([][]string, error) {
	sheets, err := readWorkbook(content, 1)
	if err != nil {
		return nil, err
	}
	return sheets[0].rows, nil
}

// extractExcel renders a workbook as tab-separated lines. Blank rows are dropped and
// each sheet gets a "# name" heading when there is more than one.
func extractExcel(content []byte) (string, error) {
	sheets, err := readWorkbook(content, 0)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	for _, s := range sheets {
		if len(sheets) > 1 {
			fmt.Fprintf(&buf, "# %s\n", s.name)
		}
		for _, row := range s.rows {
			if isBlankRow(row) {
				continue
			}
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
