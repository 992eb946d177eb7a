package judge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/shinsa/internal/models"
)

// ErrUnrecognizedLabel is returned by ParseResult when the response does not start
// with a known compliance label.
var ErrUnrecognizedLabel = errors.New("unrecognized compliance label")

// auditRecord is the record as shown to the model.
type auditRecord struct {
	RecordID      string   `json:"record_id"`
	ReceiptID     string   `json:"receipt_id,omitempty"`
	ExpenseAmount float64  `json:"expense_amount"`
	ReceiptAmount *float64 `json:"receipt_amount"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Date          string   `json:"date"`
}

const promptTemplate = `You are an expense policy auditor. Given the following expense record and relevant policy terms, identify if any part of the record is non-compliant.

Expense Record:
%s

Policies:
%s

Return exactly one of:
- "Compliant"
- "Non-compliant: <reason and which policy is violated>"
`

// BuildPrompt renders the audit prompt for a pair and the policy texts, which are
// included verbatim.
func BuildPrompt(pair models.MatchedPair, policies []string) (string, error) {
	rec := auditRecord{
		RecordID:      pair.Record.ID,
		ReceiptID:     pair.Record.ReceiptID,
		ExpenseAmount: pair.Record.Amount,
		Category:      pair.Record.Category,
		Description:   pair.Record.Description,
		Date:          pair.Record.Date,
	}
	if pair.Receipt != nil {
		rec.ReceiptAmount = pair.Receipt.ExtractedAmount
	}
	recJSON, err := indentJSON(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if policies == nil {
		policies = []string{}
	}
	polJSON, err := indentJSON(policies)
	if err != nil {
		return "", fmt.Errorf("marshal policies: %w", err)
	}
	return fmt.Sprintf(promptTemplate, recJSON, polJSON), nil
}

// indentJSON marshals v without HTML escaping so policy text reaches the model as written.
func indentJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Result is a parsed model response.
type Result struct {
	Label      string
	Compliance models.Compliance
	Reason     string
	RawText    string
}

// ParseResult reads the label from the first non-empty line of text: the part
// before the first ':' with quotes and markdown stripped. Labels other than
// Compliant and Non-compliant (any case, spacing or hyphenation) yield
// ErrUnrecognizedLabel along with the partial Result.
func ParseResult(text string) (Result, error) {
	res := Result{RawText: text}
	var line string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	label, reason, _ := strings.Cut(line, ":")
	res.Label = stripDecoration(label)
	res.Reason = strings.TrimSpace(stripDecoration(reason))

	switch normalizeLabel(res.Label) {
	case "compliant":
		res.Compliance = models.Compliant
	case "noncompliant", "notcompliant":
		res.Compliance = models.NonCompliant
	default:
		return res, fmt.Errorf("%w: %s", ErrUnrecognizedLabel, strconv.Quote(res.Label))
	}
	return res, nil
}

func stripDecoration(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'`*_#>- "))
}

func normalizeLabel(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
