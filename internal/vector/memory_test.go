package vector

import (
	"context"
	"math"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{{2, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size: got %d, want 3", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{5, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results: got %d, want 2", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("order: got %s, %s", results[0].ID, results[1].ID)
	}
	if math.Abs(results[0].Score-1) > 1e-6 {
		t.Errorf("score of parallel vector: got %v, want 1", results[0].Score)
	}
}

func TestMemoryIndex_tiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"second", "first"}, [][]float32{{1, 0}, {1, 0}})
	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].ID != "second" || results[1].ID != "first" {
		t.Errorf("tie order: got %+v", results)
	}
}

func TestMemoryIndex_readdReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}})
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{0, 1}})
	if idx.Size() != 1 {
		t.Fatalf("Size: got %d, want 1", idx.Size())
	}
	results, _ := idx.Search(ctx, []float32{0, 1}, 1)
	if len(results) != 1 || math.Abs(results[0].Score-1) > 1e-6 {
		t.Errorf("replaced vector not used: %+v", results)
	}
}

func TestMemoryIndex_invalidInput(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("expected error adding wrong-dimension vector")
	}
	if idx.Size() != 0 {
		t.Errorf("failed batch should store nothing, size %d", idx.Size())
	}
	if _, err := idx.Search(ctx, []float32{1}, 1); err == nil {
		t.Error("expected error searching with wrong-dimension query")
	}
	if _, err := idx.Search(ctx, []float32{0, 0}, 1); err == nil {
		t.Error("expected error searching with zero query")
	}
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}

func TestMemoryIndex_emptySearch(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	results, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
