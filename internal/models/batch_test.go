package models

import (
	"errors"
	"testing"
)

func TestBatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		batch   *Batch
		wantErr bool
	}{
		{"empty batch", &Batch{}, false},
		{"unique ids", &Batch{Records: []ExpenseRecord{{ID: "EXP1"}, {ID: "EXP2"}}}, false},
		{"duplicate ids", &Batch{Records: []ExpenseRecord{{ID: "EXP1"}, {ID: "EXP1"}}}, true},
		{"empty id", &Batch{Records: []ExpenseRecord{{ID: ""}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.batch.Records == nil || tt.batch.Receipts == nil || tt.batch.Policy == nil {
				t.Error("expected nil slices to be normalized")
			}
		})
	}
}

func TestBatch_ValidateReturnsParseErrors(t *testing.T) {
	b := &Batch{Records: []ExpenseRecord{{ID: "A"}, {ID: "A"}}}
	err := b.Validate()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Row != 2 {
		t.Errorf("row: got %d, want 2", perr.Row)
	}
}

func TestExternalServiceError_Unwrap(t *testing.T) {
	base := errors.New("quota exceeded")
	err := &ExternalServiceError{Provider: "ollama", Op: "generate", Err: base}
	if !errors.Is(err, base) {
		t.Error("expected errors.Is to find wrapped error")
	}
	if err.Error() != "ollama generate: quota exceeded" {
		t.Errorf("Error(): got %q", err.Error())
	}
}
