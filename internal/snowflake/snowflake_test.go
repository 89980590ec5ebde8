package snowflake

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestNewGeneratorBounds(t *testing.T) {
	if _, err := NewGenerator(-1); err == nil {
		t.Error("expected error for negative nodeID")
	}
	if _, err := NewGenerator(1024); err == nil {
		t.Error("expected error for nodeID > 1023")
	}
	if _, err := NewGenerator(0); err != nil {
		t.Errorf("NewGenerator(0): %v", err)
	}
	if _, err := NewGenerator(1023); err != nil {
		t.Errorf("NewGenerator(1023): %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	seen := make(map[ID]bool)
	for i := 0; i < 10000; i++ {
		id := g.Generate()
		if seen[id] {
			t.Fatalf("duplicate ID %d after %d generations", id, i)
		}
		seen[id] = true
	}
}

func TestGenerateMonotonic(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	prev := g.Generate()
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		if id <= prev {
			t.Fatalf("ID %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestGenerateConcurrent(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	seen := make(map[ID]bool)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]ID, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, g.Generate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate ID %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func TestExtractTimestamp(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	before := time.Now().Add(-time.Second)
	id := g.Generate()
	after := time.Now().Add(time.Second)

	ts := ExtractTimestamp(id.Int64())
	if ts.Before(before) || ts.After(after) {
		t.Errorf("extracted timestamp %v outside [%v, %v]", ts, before, after)
	}
}

func TestIDJSONRoundTrip(t *testing.T) {
	id := ID(123456789012345678)

	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"123456789012345678"` {
		t.Errorf("marshaled = %s, want quoted string", data)
	}

	var back ID
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != id {
		t.Errorf("round trip = %d, want %d", back, id)
	}

	// Plain numbers are accepted too.
	if err := json.Unmarshal([]byte("42"), &back); err != nil {
		t.Fatalf("Unmarshal number: %v", err)
	}
	if back != 42 {
		t.Errorf("number unmarshal = %d, want 42", back)
	}

	if err := json.Unmarshal([]byte(`"abc"`), &back); err == nil {
		t.Error("expected error for non-numeric string")
	}
}
