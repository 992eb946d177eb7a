package models

import "time"

// Compliance is the outcome of judging one expense record.
type Compliance string

const (
	Compliant    Compliance = "Compliant"
	NonCompliant Compliance = "NonCompliant"
	Error        Compliance = "Error"
)

// Verdict is the final, immutable result for one expense record.
type Verdict struct {
	RecordID          string     `json:"record_id"`
	ReceiptID         *string    `json:"receipt_id"`
	Compliance        Compliance `json:"compliance"`
	Explanation       string     `json:"explanation"`
	SimilarityRecord  *float64   `json:"similarity_record,omitempty"`
	SimilarityReceipt *float64   `json:"similarity_receipt,omitempty"`
	Label             string     `json:"label,omitempty"`
	Warnings          []string   `json:"warnings,omitempty"`
}

// Summary counts verdicts by compliance outcome.
type Summary struct {
	Total        int `json:"total"`
	Compliant    int `json:"compliant"`
	NonCompliant int `json:"non_compliant"`
	Error        int `json:"error"`
}

// Report is the ordered set of verdicts for one batch.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      string    `json:"mode"`
	Verdicts  []Verdict `json:"report"`
	Summary   Summary   `json:"summary"`
	Warnings  []string  `json:"warnings,omitempty"`
}

// ReportInfo is the listing view of a stored report.
type ReportInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      string    `json:"mode"`
	Summary   Summary   `json:"summary"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}
