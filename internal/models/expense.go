// Package models defines core data structures for expense records, receipts, policy chunks, and verdicts.
package models

// ExpenseRecord is one line item parsed from an expense file.
type ExpenseRecord struct {
	ID              string    `json:"id"`
	Amount          float64   `json:"amount"`
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	Date            string    `json:"date,omitempty"`
	ReceiptID       string    `json:"receipt_id,omitempty"`
	ReceiptAttached bool      `json:"receipt_attached"`
	Embedding       []float32 `json:"-"`
	// EmbedError is set when the embedding provider failed for this record only.
	EmbedError string `json:"-"`
}

// ReceiptDocument is a receipt file after text extraction and embedding.
// Error is mutually exclusive with Text and Embedding.
type ReceiptDocument struct {
	Filename        string    `json:"filename"`
	ReceiptID       string    `json:"receipt_id"`
	ExtractedAmount *float64  `json:"extracted_amount,omitempty"`
	Text            string    `json:"-"`
	Embedding       []float32 `json:"-"`
	Error           string    `json:"error,omitempty"`
}

// PolicyChunk is a segment of a policy document, embedded independently.
type PolicyChunk struct {
	ID        string    `json:"id"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

// MatchedPair joins a record with the receipt that carries its declared identity, if any.
type MatchedPair struct {
	Record   ExpenseRecord
	Receipt  *ReceiptDocument
	Warnings []string
}
