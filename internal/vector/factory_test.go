package vector

import (
	"context"
	"testing"
)

func TestFactory_Memory(t *testing.T) {
	f := &Factory{Type: IndexTypeMemory}
	idx, err := f.NewVectorIndex(3)
	if err != nil {
		t.Fatalf("NewVectorIndex(memory): %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Size() != 1 {
		t.Errorf("Size=%d, want 1", idx.Size())
	}
	if idx.Type() != "memory" {
		t.Errorf("Type=%s, want memory", idx.Type())
	}
}

func TestFactory_EmptyDefaultsToMemory(t *testing.T) {
	f := &Factory{}
	idx, err := f.NewVectorIndex(3)
	if err != nil {
		t.Fatalf("NewVectorIndex(''): %v", err)
	}
	defer idx.Close()
	if idx.Size() != 0 {
		t.Errorf("Size=%d, want 0", idx.Size())
	}
}

func TestFactory_Unknown(t *testing.T) {
	f := &Factory{Type: "faiss"}
	if _, err := f.NewVectorIndex(3); err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestFactory_InvalidDimension(t *testing.T) {
	f := &Factory{Type: IndexTypeMemory}
	if _, err := f.NewVectorIndex(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestFactory_PgVectorRequiresPool(t *testing.T) {
	f := &Factory{Type: IndexTypePgVector, Table: "policy_vectors"}
	if _, err := f.NewVectorIndex(3); err == nil {
		t.Error("expected error without a pool")
	}
}

func TestNewPgVectorIndex_rejectsBadTableName(t *testing.T) {
	if _, err := NewPgVectorIndex(nil, "x; DROP TABLE y", 3); err == nil {
		t.Error("expected error")
	}
}
