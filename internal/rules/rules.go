// Package rules applies the deterministic checks that run before any judgment.
package rules

import (
	"fmt"

	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/pkg/utils"
)

// Kind is the outcome of rule evaluation.
type Kind int

const (
	// Escalate passes the pair on to the compliance judge.
	Escalate Kind = iota
	// Reject is a terminal rule failure.
	Reject
)

func (k Kind) String() string {
	if k == Reject {
		return "reject"
	}
	return "escalate"
}

// Outcome is the result of Evaluate. Violation is set only for Reject.
type Outcome struct {
	Kind      Kind
	Violation *models.RuleViolation
}

func reject(format string, args ...any) Outcome {
	return Outcome{Kind: Reject, Violation: &models.RuleViolation{Reason: fmt.Sprintf(format, args...)}}
}

// Evaluate runs the ordered rules against a pair. The first failing rule decides.
// A record not flagged as having a receipt attached is always rejected, whatever
// receipt was matched to it.
func Evaluate(pair models.MatchedPair) Outcome {
	rec, rcpt := pair.Record, pair.Receipt
	if !rec.ReceiptAttached || rcpt == nil {
		return reject("receipt missing")
	}
	if rcpt.Error != "" {
		return reject("receipt unreadable: %s", rcpt.Error)
	}
	if rcpt.ReceiptID != rec.ReceiptID {
		return reject("identity mismatch: expected %s, got %s", rec.ReceiptID, rcpt.ReceiptID)
	}
	if rcpt.ExtractedAmount == nil || *rcpt.ExtractedAmount != rec.Amount {
		return reject("amount mismatch: expected %s, got %s",
			utils.FormatAmount(rec.Amount), utils.FormatOptionalAmount(rcpt.ExtractedAmount))
	}
	return Outcome{Kind: Escalate}
}
