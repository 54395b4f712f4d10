package chromem

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/vectorstore"
)

const testDimensions = 8

func unitVector(hot int) []float32 {
	vec := make([]float32, testDimensions)
	vec[hot] = 1
	return vec
}

func seedRecords(t *testing.T, s *Store, namespace string, n int) []vectorstore.Record {
	t.Helper()
	records := make([]vectorstore.Record, n)
	for i := range records {
		records[i] = vectorstore.Record{
			ID:     fmt.Sprintf("%s-rec-%d", namespace, i),
			Vector: unitVector(i % testDimensions),
			Text:   fmt.Sprintf("%s chunk %d", namespace, i),
			Page:   i + 1,
		}
	}
	count, err := s.Upsert(context.Background(), namespace, records)
	require.NoError(t, err)
	require.Equal(t, n, count)
	return records
}

func TestEnsureNamespace_IdempotentAndRaceSafe(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.EnsureNamespace(ctx, "doc-1"))
		}()
	}
	wg.Wait()

	require.NoError(t, s.EnsureNamespace(ctx, "doc-1"))
}

func TestSearch_OwnVectorIsTopMatch(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	records := seedRecords(t, s, "doc-1", 4)

	matches, err := s.Search(context.Background(), "doc-1", records[2].Vector, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, records[2].Text, matches[0].Text)
	assert.Equal(t, records[2].Page, matches[0].Page)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-5)
}

func TestSearch_ScoresNonIncreasing(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	seedRecords(t, s, "doc-1", 6)

	query := []float32{0.9, 0.3, 0.1, 0, 0, 0, 0, 0}
	matches, err := s.Search(context.Background(), "doc-1", query, 6)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestSearch_TopKClampedToStoredCount(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	seedRecords(t, s, "doc-1", 2)

	matches, err := s.Search(context.Background(), "doc-1", unitVector(0), 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearch_EmptyNamespace(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	require.NoError(t, s.EnsureNamespace(context.Background(), "doc-1"))

	matches, err := s.Search(context.Background(), "doc-1", unitVector(0), 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestNamespaceIsolation(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	seedRecords(t, s, "doc-1", 3)
	seedRecords(t, s, "doc-2", 3)

	matches, err := s.Search(context.Background(), "doc-1", unitVector(0), 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Contains(t, m.Text, "doc-1", "namespace doc-1 leaked a foreign chunk")
	}
}

func TestUpsert_ReingestAppends(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	seedRecords(t, s, "doc-1", 2)

	count, err := s.Upsert(context.Background(), "doc-1", []vectorstore.Record{{
		ID:     "extra",
		Vector: unitVector(5),
		Text:   "doc-1 extra chunk",
		Page:   9,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches, err := s.Search(context.Background(), "doc-1", unitVector(5), 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestUpsert_DimensionGuard(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)

	_, err = s.Upsert(context.Background(), "doc-1", []vectorstore.Record{{
		ID:     "bad",
		Vector: []float32{1, 2},
		Text:   "bad",
	}})
	require.Error(t, err)
}

func TestFetchSample_Deterministic(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	seedRecords(t, s, "doc-1", 6)

	first, err := s.FetchSample(context.Background(), "doc-1", 4)
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := s.FetchSample(context.Background(), "doc-1", 4)
	require.NoError(t, err)
	assert.Equal(t, first, second, "sample selection must be deterministic per namespace")

	for _, rec := range first {
		assert.NotEmpty(t, rec.Text)
		assert.Greater(t, rec.Page, 0)
	}
}

func TestFetchSample_ClampedToStoredCount(t *testing.T) {
	s, err := New("", testDimensions)
	require.NoError(t, err)
	seedRecords(t, s, "doc-1", 3)

	records, err := s.FetchSample(context.Background(), "doc-1", 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
