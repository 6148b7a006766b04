package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

type fakeRollupRepo struct {
	byKind  map[string][]repository.KeyCount
	upserts []*domain.TrendingRollup
}

func (f *fakeRollupRepo) Upsert(ctx context.Context, r *domain.TrendingRollup) error {
	f.upserts = append(f.upserts, r)
	return nil
}

func (f *fakeRollupRepo) Top(ctx context.Context, kind, asOf string, limit int) ([]*domain.TrendingRollup, error) {
	return nil, nil
}

func (f *fakeRollupRepo) Timeline(ctx context.Context, kind, key string, days int) ([]repository.TimelinePoint, error) {
	return nil, nil
}

func (f *fakeRollupRepo) KeyCounts(ctx context.Context, kind string, asOf time.Time, windowDays int) ([]repository.KeyCount, error) {
	return f.byKind[kind], nil
}

func TestRecomputerRunWritesNonZeroKeysAndZScores(t *testing.T) {
	fake := &fakeRollupRepo{byKind: map[string][]repository.KeyCount{
		"section": {
			{Key: "Sports", Count: 6, Mean: 3, StdDev: 1},
			{Key: "Opinion", Count: 0, Mean: 0, StdDev: 0},
		},
		"tag":    {{Key: "festival", Count: 2, Mean: 2, StdDev: 0}},
		"entity": {},
		"topic":  {},
	}}
	rc := New(fake)

	res, err := rc.Run(context.Background(), time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), 14)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Written["section"])
	assert.Equal(t, 1, res.Written["tag"])
	assert.Equal(t, 0, res.Written["entity"])

	require.Len(t, fake.upserts, 2)
	var sports, festival *domain.TrendingRollup
	for _, u := range fake.upserts {
		switch u.Key {
		case "Sports":
			sports = u
		case "festival":
			festival = u
		}
	}
	require.NotNil(t, sports)
	assert.Equal(t, 3.0, sports.ZScore) // (6-3)/1
	require.NotNil(t, festival)
	assert.Equal(t, 0.0, festival.ZScore) // stddev 0 degrades to 0
}

func TestRecomputerRunDefaultsWindow(t *testing.T) {
	fake := &fakeRollupRepo{byKind: map[string][]repository.KeyCount{}}
	rc := New(fake)
	res, err := rc.Run(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, res.Written["section"])
}
