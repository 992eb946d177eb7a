package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/shinsa/internal/models"
)

func testChunks() []models.PolicyChunk {
	return []models.PolicyChunk{
		{ID: "c0", Index: 0, Text: "Meals are reimbursed up to 50 per day.", Embedding: []float32{1, 0, 0}},
		{ID: "c1", Index: 1, Text: "Flights must be booked in economy class.", Embedding: []float32{0, 1, 0}},
		{ID: "c2", Index: 2, Text: "Hotels require an itemised receipt.", Embedding: []float32{0, 0, 1}},
	}
}

func TestNewSet_Vectors(t *testing.T) {
	s, err := NewSet(context.Background(), testChunks(), nil, WithSource("policy.txt"))
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	defer s.Close()
	if s.Len() != 3 || len(s.Vectors()) != 3 {
		t.Fatalf("Len=%d Vectors=%d, want 3", s.Len(), len(s.Vectors()))
	}
	if s.Vectors()[1][1] != 1 {
		t.Errorf("vectors not in document order: %v", s.Vectors())
	}
	if s.Source() != "policy.txt" {
		t.Errorf("Source: got %q", s.Source())
	}
}

func TestNewSet_Empty(t *testing.T) {
	s, err := NewSet(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	if len(s.Vectors()) != 0 {
		t.Errorf("expected no vectors")
	}
	got, err := s.Relevant(context.Background(), "meals", nil, 3)
	if err != nil || len(got) != 0 {
		t.Errorf("Relevant on empty set: got %v, %v", got, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewSet_InvalidChunks(t *testing.T) {
	tests := []struct {
		name   string
		chunks []models.PolicyChunk
	}{
		{"missing embedding", []models.PolicyChunk{{ID: "a", Text: "x"}}},
		{"dimension mismatch", []models.PolicyChunk{
			{ID: "a", Embedding: []float32{1, 0}},
			{ID: "b", Embedding: []float32{1, 0, 0}},
		}},
		{"duplicate id", []models.PolicyChunk{
			{ID: "a", Embedding: []float32{1}},
			{ID: "a", Embedding: []float32{1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSet(context.Background(), tt.chunks, nil)
			var inv *models.InvalidInputError
			if !errors.As(err, &inv) {
				t.Errorf("got %v, want InvalidInputError", err)
			}
		})
	}
}

func TestRelevant_AllWhenKNotPositive(t *testing.T) {
	s, err := NewSet(context.Background(), testChunks(), nil)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	defer s.Close()
	got, err := s.Relevant(context.Background(), "flights", []float32{0, 1, 0}, 0)
	if err != nil {
		t.Fatalf("Relevant: %v", err)
	}
	if len(got) != 3 || got[0] != testChunks()[0].Text {
		t.Errorf("k=0 should return all chunks in order, got %v", got)
	}
}

func TestRelevant_Fused(t *testing.T) {
	s, err := NewSet(context.Background(), testChunks(), nil)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	got, err := s.Relevant(ctx, "hotels receipt", nil, 1)
	if err != nil {
		t.Fatalf("Relevant keyword: %v", err)
	}
	if len(got) != 1 || got[0] != testChunks()[2].Text {
		t.Errorf("keyword: got %v", got)
	}

	got, err = s.Relevant(ctx, "", []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("Relevant semantic: %v", err)
	}
	if len(got) != 1 || got[0] != testChunks()[1].Text {
		t.Errorf("semantic: got %v", got)
	}

	got, err = s.Relevant(ctx, "", nil, 2)
	if err != nil {
		t.Fatalf("Relevant no signal: %v", err)
	}
	if len(got) != 2 || got[0] != testChunks()[0].Text || got[1] != testChunks()[1].Text {
		t.Errorf("no signal should pad in document order, got %v", got)
	}
}

func TestSet_RetainClose(t *testing.T) {
	s, err := NewSet(context.Background(), testChunks(), nil)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	s.Retain()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Still retained once; keyword index must be usable.
	if _, err := s.Relevant(context.Background(), "meals", nil, 1); err != nil {
		t.Errorf("Relevant after first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("final Close: %v", err)
	}
}

func TestFuse_TieBreaksByDocumentOrder(t *testing.T) {
	order := map[string]int{"a": 0, "b": 1, "c": 2}
	got := fuse(map[string]float64{"c": 1, "a": 1}, map[string]float64{"b": 0.5}, 0.5, 0.5, order)
	if len(got) != 3 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" || got[2].ID != "b" {
		t.Errorf("order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[2].Score != 0.25 {
		t.Errorf("b score: got %v, want 0.25", got[2].Score)
	}
}

func TestNormalizeKeywordScores(t *testing.T) {
	m := normalizeKeywordScores([]keywordHit{{ID: "a", Score: 2}, {ID: "b", Score: 4}})
	if m["b"] != 1.0 || m["a"] != 0.5 {
		t.Errorf("got %v", m)
	}
	if len(normalizeKeywordScores(nil)) != 0 {
		t.Error("nil hits should give empty map")
	}
}
