package embedding

import (
	"testing"
)

func TestEmbeddingCache_evictsLeastRecentlyUsed(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("taxi", []float32{1, 2, 3})
	c.Set("lunch", []float32{4, 5})
	if _, ok := c.Get("taxi"); !ok { // taxi is now most recent
		t.Fatal("expected taxi to be cached")
	}
	c.Set("hotel", []float32{6}) // evicts lunch
	if _, ok := c.Get("lunch"); ok {
		t.Error("expected lunch to be evicted")
	}
	for _, k := range []string{"taxi", "hotel"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %s to remain", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len: got %d, want 2", c.Len())
	}
}

func TestEmbeddingCache_copies(t *testing.T) {
	c := NewEmbeddingCache(4)
	in := []float32{1, 2}
	c.Set("a", in)
	in[0] = 99
	got, _ := c.Get("a")
	if got[0] != 1 {
		t.Errorf("cache aliased the stored slice: got %v", got)
	}
	got[1] = 42
	again, _ := c.Get("a")
	if again[1] != 2 {
		t.Errorf("cache aliased the returned slice: got %v", again)
	}
}

func TestEmbeddingCache_stats(t *testing.T) {
	c := NewEmbeddingCache(0) // clamps to 1
	c.Get("x")
	c.Set("x", []float32{1})
	c.Get("x")
	c.Set("y", []float32{2})
	c.Get("x")
	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Stats: got hits=%d misses=%d, want 1 and 2", hits, misses)
	}
}
