package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptradar/rxquote/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestRegionalPriceCacheRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	// Absent before set.
	got, err := s.GetCachedRegionalPrice(ctx, "metformin", "TX")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SetCachedRegionalPrice(ctx, "metformin", "TX", 0.25, time.Hour))

	got, err = s.GetCachedRegionalPrice(ctx, "metformin", "TX")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.25, got.PricePerUnit)
	assert.Equal(t, "TX", got.Region)

	// Different region is a different entry.
	got, err = s.GetCachedRegionalPrice(ctx, "metformin", NationalRegion)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegionalPriceCacheUpsert(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCachedRegionalPrice(ctx, "lisinopril", "US", 0.10, time.Hour))
	require.NoError(t, s.SetCachedRegionalPrice(ctx, "lisinopril", "US", 0.12, time.Hour))

	got, err := s.GetCachedRegionalPrice(ctx, "lisinopril", "US")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.12, got.PricePerUnit)
}

func TestRegionalPriceCacheExpiry(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	// Already-expired entry is treated as absent.
	require.NoError(t, s.SetCachedRegionalPrice(ctx, "stale", "US", 1.0, -time.Minute))

	got, err := s.GetCachedRegionalPrice(ctx, "stale", "US")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := s.DeleteExpiredRegionalPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQuoteRunLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateQuoteRun(ctx, "Metformin 500mg", "metformin", 3)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusPending, run.Status)

	require.NoError(t, s.CompleteQuoteRun(ctx, run.ID, model.ProvenanceCuratedGeneric, 3))

	runs, err := s.ListQuoteRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusComplete, runs[0].Status)
	assert.Equal(t, model.ProvenanceCuratedGeneric, runs[0].Provenance)
	assert.Equal(t, 3, runs[0].Quotes)
	require.NotNil(t, runs[0].CompletedAt)
}

func TestCompleteQuoteRunMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	err := s.CompleteQuoteRun(context.Background(), "no-such-id", model.ProvenanceFlatEstimate, 0)
	assert.ErrorContains(t, err, "not found")
}
