package query

import (
	"context"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/index"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
)

func TestSearchReturnsSortedPostings(t *testing.T) {
	idx := index.New()
	idx.Merge("cat", "a.txt", 2)
	idx.Merge("cat", "b.txt", 5)

	e := New(idx, config.English, nil)
	results, err := e.Search(context.Background(), "Cats")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []index.Posting{{DocID: "b.txt", Frequency: 5}, {DocID: "a.txt", Frequency: 2}}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Search(\"Cats\") = %v, want %v", results, want)
	}
}

func TestSearchEmptyNormalizedTermReturnsEmpty(t *testing.T) {
	idx := index.New()
	e := New(idx, config.English, nil)
	results, err := e.Search(context.Background(), "and")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search(\"and\") = %v, want empty", results)
	}
}

func TestSearchMultiTokenCollapsesToFirst(t *testing.T) {
	idx := index.New()
	idx.Merge("cat", "a.txt", 1)
	idx.Merge("dog", "b.txt", 1)

	e := New(idx, config.English, nil)
	results, err := e.Search(context.Background(), "cats dogs")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].DocID != "a.txt" {
		t.Errorf("Search(\"cats dogs\") = %v, want only a.txt (first token)", results)
	}
}

func TestSearchUnknownTermReturnsEmpty(t *testing.T) {
	idx := index.New()
	e := New(idx, config.English, nil)
	results, err := e.Search(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search(\"nonexistent\") = %v, want empty", results)
	}
}
