package models

import "fmt"

// Batch is one request's full set of records, receipts, and policy chunks.
type Batch struct {
	Records  []ExpenseRecord
	Receipts []ReceiptDocument
	Policy   []PolicyChunk
}

// Validate normalizes nil slices and rejects duplicate record IDs.
func (b *Batch) Validate() error {
	if b.Records == nil {
		b.Records = []ExpenseRecord{}
	}
	if b.Receipts == nil {
		b.Receipts = []ReceiptDocument{}
	}
	if b.Policy == nil {
		b.Policy = []PolicyChunk{}
	}
	seen := make(map[string]int, len(b.Records))
	var errs MultiError
	for i, r := range b.Records {
		if r.ID == "" {
			errs = append(errs, &ParseError{Row: i + 1, Reason: "record id is empty"})
			continue
		}
		if prev, ok := seen[r.ID]; ok {
			errs = append(errs, &ParseError{Row: i + 1, Reason: fmt.Sprintf("duplicate record id %q (first at row %d)", r.ID, prev)})
			continue
		}
		seen[r.ID] = i + 1
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
