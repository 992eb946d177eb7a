package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/shinsa/internal/models"
)

var requiredColumns = []string{"amount", "date", "category", "description"}

// ParseExpenses parses a CSV or Excel expense file into records. The first row must be
// a header naming at least Amount, Date, Category and Description.
func ParseExpenses(filename string, content []byte) ([]models.ExpenseRecord, error) {
	var rows [][]string
	var err error
	switch Ext(filename) {
	case ".csv", "":
		rows, err = readCSVRows(content)
	case ".xlsx", ".xlsm", ".xls":
		rows, err = readExcelRows(content)
	default:
		return nil, &models.ParseError{File: filename, Reason: fmt.Sprintf("unsupported expense file type %q", Ext(filename))}
	}
	if err != nil {
		return nil, &models.ParseError{File: filename, Reason: err.Error()}
	}
	return parseExpenseRows(filename, rows)
}

func readCSVRows(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func parseExpenseRows(filename string, rows [][]string) ([]models.ExpenseRecord, error) {
	if len(rows) == 0 {
		return nil, &models.ParseError{File: filename, Reason: "empty file: header row required"}
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &models.ParseError{File: filename, Row: 1, Reason: "missing required columns: " + strings.Join(missing, ", ")}
	}
	idCol := -1
	for _, name := range []string{"record id", "id", "expense id"} {
		if i, ok := cols[name]; ok {
			idCol = i
			break
		}
	}

	cell := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}
	optional := func(name string) int {
		if i, ok := cols[name]; ok {
			return i
		}
		return -1
	}
	receiptCol := optional("receipt id")
	attachedCol := optional("receipt attached")

	records := make([]models.ExpenseRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		amount, err := ParseAmount(cell(row, cols["amount"]))
		if err != nil {
			return nil, &models.ParseError{File: filename, Row: rowNum, Reason: err.Error()}
		}
		id := cell(row, idCol)
		if id == "" {
			id = fmt.Sprintf("EXP%05d", rowNum-1)
		}
		receiptID := cell(row, receiptCol)
		// Without an attached column, a declared receipt id counts as attached.
		attached := receiptID != ""
		if attachedCol >= 0 {
			attached = parseBool(cell(row, attachedCol))
		}
		records = append(records, models.ExpenseRecord{
			ID:              id,
			Amount:          amount,
			Category:        cell(row, cols["category"]),
			Description:     cell(row, cols["description"]),
			Date:            cell(row, cols["date"]),
			ReceiptID:       receiptID,
			ReceiptAttached: attached,
		})
	}
	return records, nil
}

// ParseAmount parses a monetary value, accepting a leading currency symbol and
// thousands separators.
func ParseAmount(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
