// Package analytics recomputes the TrendingRollup table from the Article
// and Summary history the extractor/summarizer already wrote. It holds no
// state of its own; Run is pure read-aggregate-then-upsert, safe to
// run repeatedly and idempotent for a given (kind, asOf, windowDays).
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// Kinds are the four trending buckets /analytics/trending serves.
var Kinds = []string{"section", "tag", "entity", "topic"}

// DefaultWindowDays is the rolling window backing
// /analytics/trending's z-score baseline.
const DefaultWindowDays = 14

// Recomputer recomputes TrendingRollup rows.
type Recomputer struct {
	Rollups repository.TrendingRollupRepository
}

// New builds a Recomputer.
func New(rollups repository.TrendingRollupRepository) *Recomputer {
	return &Recomputer{Rollups: rollups}
}

// Result tallies how many (kind, key) rollup rows were written per kind.
type Result struct {
	Written map[string]int
}

// Run recomputes every kind in Kinds as of asOf over the trailing
// windowDays days, upserting one TrendingRollup row per key with a
// non-zero score. A key's score is its raw count on asOf; its zscore is
// (count-mean)/stddev over the window, 0 when the window has no spread.
func (rc *Recomputer) Run(ctx context.Context, asOf time.Time, windowDays int) (Result, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	res := Result{Written: make(map[string]int, len(Kinds))}

	for _, kind := range Kinds {
		counts, err := rc.Rollups.KeyCounts(ctx, kind, asOf, windowDays)
		if err != nil {
			return res, fmt.Errorf("analytics: recompute %s: %w", kind, err)
		}
		for _, kc := range counts {
			if kc.Count == 0 {
				continue
			}
			zscore := 0.0
			if kc.StdDev > 0 {
				zscore = (kc.Count - kc.Mean) / kc.StdDev
			}
			row := &domain.TrendingRollup{
				Kind:     kind,
				Key:      kc.Key,
				AsOfDate: asOf,
				Score:    kc.Count,
				ZScore:   zscore,
				Details: map[string]string{
					"window_days": fmt.Sprintf("%d", windowDays),
				},
			}
			if err := rc.Rollups.Upsert(ctx, row); err != nil {
				return res, fmt.Errorf("analytics: upsert %s/%s: %w", kind, kc.Key, err)
			}
			res.Written[kind]++
		}
	}
	return res, nil
}
