// Package query implements keyword search over the global index: normalize
// the raw term, look up postings, and collapse duplicate concurrent
// searches for the same term into a single index lookup.
package query

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/index"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/tracing"
)

// Engine answers search(rawTerm) against the coordinator's global index.
type Engine struct {
	index    *index.Index
	language config.Language
	group    singleflight.Group
	metrics  *metrics.Metrics
}

// New creates an Engine searching idx, normalizing queries with language.
func New(idx *index.Index, language config.Language, m *metrics.Metrics) *Engine {
	return &Engine{index: idx, language: language, metrics: m}
}

// Search normalizes rawTerm and returns its postings sorted by frequency
// descending, then docId ascending. A multi-token input collapses to its
// first token; an empty normalized result yields no documents.
func (e *Engine) Search(ctx context.Context, rawTerm string) ([]index.Posting, error) {
	_, span := tracing.StartChildSpan(ctx, "query_lookup")
	defer span.End()

	start := time.Now()
	tokens, err := normalize.Normalize(rawTerm, e.language)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(tokens) == 0 {
		if e.metrics != nil {
			e.metrics.SearchDuration.Observe(time.Since(start).Seconds())
			e.metrics.SearchZeroResult.Inc()
		}
		return []index.Posting{}, nil
	}
	term := tokens[0]

	val, err, _ := e.group.Do(term, func() (any, error) {
		return e.index.Search(term), nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	results := val.([]index.Posting)
	span.SetAttr("term", term)
	span.SetAttr("result_count", len(results))
	if e.metrics != nil {
		e.metrics.SearchDuration.Observe(time.Since(start).Seconds())
		if len(results) == 0 {
			e.metrics.SearchZeroResult.Inc()
		}
	}
	return results, nil
}
