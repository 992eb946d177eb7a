package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	receiptIDRe     = regexp.MustCompile(`(?i)Receipt\s*ID[:\s]+(\w+)`)
	receiptAmountRe = regexp.MustCompile(`(?i)Amount[:\s]*\$?([\d,]+\.\d{2})`)
)

// ReceiptFields are the structured fields recovered from receipt text.
type ReceiptFields struct {
	ReceiptID string
	Amount    *float64
}

// ExtractReceiptFields finds the first "Receipt ID" and "Amount" fields in text.
// Missing fields are left empty.
func ExtractReceiptFields(text string) ReceiptFields {
	var f ReceiptFields
	if m := receiptIDRe.FindStringSubmatch(text); m != nil {
		f.ReceiptID = m[1]
	}
	if m := receiptAmountRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			f.Amount = &v
		}
	}
	return f
}
