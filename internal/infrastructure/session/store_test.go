package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

func resultWithLabel(id string, n int) *domain.ExtractionResult {
	tables := make([]domain.ExtractedTable, n)
	for i := range tables {
		tables[i] = domain.ExtractedTable{Index: i, Label: id, Fragment: "<table></table>"}
	}
	return &domain.ExtractionResult{ID: id, Tables: tables}
}

func TestGetWithoutResult(t *testing.T) {
	store := NewStore()

	if _, err := store.Get(0); !domain.IsKind(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
	if store.Current() != nil {
		t.Fatalf("expected nil current result")
	}
}

func TestGetOutOfRange(t *testing.T) {
	store := NewStore()
	store.Replace(resultWithLabel("a", 3))

	for _, index := range []int{-1, 3, 5} {
		if _, err := store.Get(index); !domain.IsKind(err, domain.ErrIndexNotFound) {
			t.Fatalf("index %d: expected ErrIndexNotFound, got %v", index, err)
		}
	}
}

func TestIndexStableUntilReplace(t *testing.T) {
	store := NewStore()
	store.Replace(resultWithLabel("a", 2))

	first, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := store.Get(1)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if again.Label != first.Label || again.Index != first.Index {
			t.Fatalf("index 1 changed between calls: %+v vs %+v", again, first)
		}
	}

	store.Replace(resultWithLabel("b", 2))
	replaced, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if replaced.Label != "b" {
		t.Fatalf("expected new result after replace, got %q", replaced.Label)
	}
}

func TestConcurrentReplaceAndGetNeverMixes(t *testing.T) {
	store := NewStore()
	store.Replace(resultWithLabel("gen-0", 4))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := 1; gen <= 100; gen++ {
			store.Replace(resultWithLabel(fmt.Sprintf("gen-%d", gen), 4))
		}
		close(stop)
	}()

	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				result := store.Current()
				if result == nil {
					t.Errorf("current result disappeared")
					return
				}
				// Every table in one observed result must come from the
				// same extraction.
				for _, table := range result.Tables {
					if table.Label != result.ID {
						t.Errorf("mixed result observed: table %q in result %q", table.Label, result.ID)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}
