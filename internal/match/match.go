// Package match pairs expense records with the receipts they reference.
package match

import "github.com/hyperjump/shinsa/internal/models"

// Match pairs each record with the receipt whose ReceiptID equals the record's
// ReceiptID (exact, case-sensitive). Records without a receipt id or without a
// matching receipt get a nil Receipt. When several receipts share an id the first
// in input order wins and one MatchAmbiguity per id is returned; pairs using that
// id carry the warning. Output order follows records.
func Match(records []models.ExpenseRecord, receipts []models.ReceiptDocument) ([]models.MatchedPair, []models.MatchAmbiguity) {
	byID := make(map[string]int, len(receipts))
	counts := make(map[string]int)
	var dupOrder []string
	for i, r := range receipts {
		if r.ReceiptID == "" {
			continue
		}
		counts[r.ReceiptID]++
		if _, ok := byID[r.ReceiptID]; !ok {
			byID[r.ReceiptID] = i
		} else if counts[r.ReceiptID] == 2 {
			dupOrder = append(dupOrder, r.ReceiptID)
		}
	}

	ambiguities := make([]models.MatchAmbiguity, 0, len(dupOrder))
	warnings := make(map[string]string, len(dupOrder))
	for _, id := range dupOrder {
		a := models.MatchAmbiguity{ReceiptID: id, Count: counts[id]}
		ambiguities = append(ambiguities, a)
		warnings[id] = a.Error()
	}

	pairs := make([]models.MatchedPair, len(records))
	for i, rec := range records {
		pairs[i] = models.MatchedPair{Record: rec}
		if rec.ReceiptID == "" {
			continue
		}
		idx, ok := byID[rec.ReceiptID]
		if !ok {
			continue
		}
		pairs[i].Receipt = &receipts[idx]
		if w, ok := warnings[rec.ReceiptID]; ok {
			pairs[i].Warnings = append(pairs[i].Warnings, w)
		}
	}
	return pairs, ambiguities
}
