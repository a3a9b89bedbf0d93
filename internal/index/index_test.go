package index

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMergeAndSearch(t *testing.T) {
	idx := New()
	idx.Merge("search", "doc-1", 3)
	idx.Merge("search", "doc-2", 5)
	idx.Merge("search", "doc-3", 5)

	results := idx.Search("search")
	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3", len(results))
	}
	// doc-2 and doc-3 tie at frequency 5; docId ascending breaks the tie.
	want := []Posting{
		{DocID: "doc-2", Frequency: 5},
		{DocID: "doc-3", Frequency: 5},
		{DocID: "doc-1", Frequency: 3},
	}
	for i, w := range want {
		if results[i] != w {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], w)
		}
	}
}

func TestSearchUnknownTermReturnsEmpty(t *testing.T) {
	idx := New()
	results := idx.Search("missing")
	if len(results) != 0 {
		t.Errorf("Search() = %v, want empty", results)
	}
}

func TestMergeOverwritesNotAccumulates(t *testing.T) {
	idx := New()
	idx.Merge("term", "doc-1", 2)
	idx.Merge("term", "doc-1", 7)
	results := idx.Search("term")
	if len(results) != 1 || results[0].Frequency != 7 {
		t.Errorf("Search() = %v, want single posting with frequency 7", results)
	}
}

func TestTermAndDocCount(t *testing.T) {
	idx := New()
	idx.Merge("alpha", "doc-1", 1)
	idx.Merge("beta", "doc-1", 1)
	idx.Merge("beta", "doc-2", 1)

	if got := idx.TermCount(); got != 2 {
		t.Errorf("TermCount() = %d, want 2", got)
	}
	if got := idx.DocCount(); got != 2 {
		t.Errorf("DocCount() = %d, want 2", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := New()
	idx.Merge("search", "doc-1", 3)
	idx.Merge("index", "doc-2", 1)

	path := filepath.Join(t.TempDir(), "nested", "index.gz")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.TermCount(); got != 2 {
		t.Errorf("TermCount() after load = %d, want 2", got)
	}
	results := loaded.Search("search")
	if len(results) != 1 || results[0].DocID != "doc-1" || results[0].Frequency != 3 {
		t.Errorf("Search(\"search\") after load = %v, want doc-1:3", results)
	}
}

func TestLoadMissingFileIsNotError(t *testing.T) {
	idx := New()
	err := idx.Load(filepath.Join(t.TempDir(), "does-not-exist.gz"))
	if err != nil {
		t.Fatalf("Load of missing snapshot returned error: %v", err)
	}
	if idx.TermCount() != 0 {
		t.Errorf("TermCount() = %d, want 0 for never-loaded index", idx.TermCount())
	}
}

func TestSaveLeavesNoTempFilesBehind(t *testing.T) {
	idx := New()
	idx.Merge("term", "doc-1", 1)
	dir := t.TempDir()
	path := filepath.Join(dir, "index.gz")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "index.gz" {
		t.Errorf("directory contents after Save = %v, want only index.gz", entries)
	}
}
