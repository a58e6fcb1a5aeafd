package changelog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raimangsxr/my-warehouse/internal/domain"
	"github.com/raimangsxr/my-warehouse/internal/store"
)

func seedWarehouse(t *testing.T) (*store.Store, string) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := store.FormatTime(time.Now())
	_, err = s.DB().Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		"user-1", "owner@example.com", "hash", now)
	require.NoError(t, err)

	warehouseID := "warehouse-1"
	_, err = s.DB().Exec(`INSERT INTO warehouses (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		warehouseID, "Test Warehouse", "user-1", now)
	require.NoError(t, err)
	return s, warehouseID
}

func TestAppend_AssignsIncreasingSeq(t *testing.T) {
	s, wh := seedWarehouse(t)
	ctx := context.Background()
	w := New(s.DB())

	seq1, err := w.Append(ctx, wh, "box", "box-1", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)
	seq2, err := w.Append(ctx, wh, "box", "box-2", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)
	assert.Less(t, seq1, seq2)
}

func TestSince_OrderedAscendingAfterSinceSeq(t *testing.T) {
	s, wh := seedWarehouse(t)
	ctx := context.Background()
	w := New(s.DB())

	seq1, err := w.Append(ctx, wh, "box", "box-1", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)
	_, err = w.Append(ctx, wh, "box", "box-2", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)
	_, err = w.Append(ctx, wh, "box", "box-3", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)

	entries, err := Since(ctx, s.DB(), wh, seq1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "box-2", entries[0].EntityID)
	assert.Equal(t, "box-3", entries[1].EntityID)
}

func TestSince_RespectsLimit(t *testing.T) {
	s, wh := seedWarehouse(t)
	ctx := context.Background()
	w := New(s.DB())

	for i := 0; i < 5; i++ {
		_, err := w.Append(ctx, wh, "box", "box", domain.ActionCreate, nil, nil, time.Now())
		require.NoError(t, err)
	}

	entries, err := Since(ctx, s.DB(), wh, 0, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSince_ScopedToWarehouse(t *testing.T) {
	s, wh := seedWarehouse(t)
	ctx := context.Background()
	w := New(s.DB())

	_, err := s.DB().Exec(`INSERT INTO warehouses (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		"warehouse-2", "Other", "user-1", store.FormatTime(time.Now()))
	require.NoError(t, err)

	_, err = w.Append(ctx, wh, "box", "box-1", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)
	_, err = w.Append(ctx, "warehouse-2", "box", "box-2", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)

	entries, err := Since(ctx, s.DB(), wh, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "box-1", entries[0].EntityID)
}

func TestAppend_RoundTripsPayloadAndVersion(t *testing.T) {
	s, wh := seedWarehouse(t)
	ctx := context.Background()
	w := New(s.DB())

	v := 3
	_, err := w.Append(ctx, wh, "item", "item-1", domain.ActionUpdate, &v, map[string]any{"name": "Widget"}, time.Now())
	require.NoError(t, err)

	entries, err := Since(ctx, s.DB(), wh, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].EntityVersion)
	assert.Equal(t, 3, *entries[0].EntityVersion)
	assert.Equal(t, "Widget", entries[0].Payload["name"])
}

func TestLastSeq_ZeroWhenEmpty(t *testing.T) {
	s, wh := seedWarehouse(t)
	seq, err := LastSeq(context.Background(), s.DB(), wh)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestLastSeq_MatchesMostRecentAppend(t *testing.T) {
	s, wh := seedWarehouse(t)
	ctx := context.Background()
	w := New(s.DB())

	_, err := w.Append(ctx, wh, "box", "box-1", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)
	last, err := w.Append(ctx, wh, "box", "box-2", domain.ActionCreate, nil, nil, time.Now())
	require.NoError(t, err)

	seq, err := LastSeq(ctx, s.DB(), wh)
	require.NoError(t, err)
	assert.Equal(t, last, seq)
}
