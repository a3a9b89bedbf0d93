// Package benchmark contains Go benchmarks for the global index, the
// normalization pipeline, and the query engine, measuring throughput and
// allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/index"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/query"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
)

// BenchmarkIndexMerge measures per-posting merge throughput into the global
// inverted index.
func BenchmarkIndexMerge(b *testing.B) {
	idx := index.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		idx.Merge("benchmark", docID, i%50)
	}
}

// BenchmarkIndexSearch measures single-term lookup latency over 10 000
// documents already merged into the index.
func BenchmarkIndexSearch(b *testing.B) {
	idx := index.New()
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		idx.Merge("search", docID, i%25)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := idx.Search("search")
		_ = results
	}
}

// BenchmarkIndexSearchParallel measures concurrent read throughput against a
// single shared index, since the coordinator serves many concurrent
// searches against one *index.Index.
func BenchmarkIndexSearchParallel(b *testing.B) {
	idx := index.New()
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		idx.Merge("search", docID, i%25)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := idx.Search("search")
			_ = results
		}
	})
}

// BenchmarkIndexSaveLoad measures the cost of a full snapshot round trip at
// various corpus sizes.
func BenchmarkIndexSaveLoad(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			idx := index.New()
			for i := 0; i < n; i++ {
				docID := fmt.Sprintf("doc-%d", i)
				idx.Merge("term", docID, i%10)
			}
			path := b.TempDir() + "/snapshot.gz"

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := idx.Save(path); err != nil {
					b.Fatal(err)
				}
				if err := idx.Load(path); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkQueryEngineSearch measures end-to-end search latency through the
// query engine, including normalization and singleflight dispatch, across
// 10 000 documents distributed over a fixed term vocabulary.
func BenchmarkQueryEngineSearch(b *testing.B) {
	idx := index.New()
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		idx.Merge(terms[i%len(terms)], docID, i%20)
	}
	engine := query.New(idx, config.English, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, err := engine.Search(context.Background(), terms[i%len(terms)])
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}
