package extract

import (
	"strings"
	"testing"
)

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(3, 1)
	chunks := c.Chunk("policy", "one two three four five six seven")
	want := []string{"one two three", "three four five", "five six seven"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, ch := range chunks {
		if ch.Text != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, ch.Text, want[i])
		}
		if ch.Index != i {
			t.Errorf("chunk %d Index=%d", i, ch.Index)
		}
		if !strings.HasPrefix(ch.ID, "policy_") {
			t.Errorf("chunk %d ID=%q lacks doc prefix", i, ch.ID)
		}
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	if chunks := NewChunker(5, 1).Chunk("d", "   \n\t  "); chunks != nil {
		t.Errorf("empty text should return nil, got %v", chunks)
	}
}

func TestChunker_OverlapNotSmallerThanSize(t *testing.T) {
	chunks := NewChunker(2, 5).Chunk("d", "a b c")
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[1].Text != "b c" {
		t.Errorf("got %q", chunks[1].Text)
	}
}
