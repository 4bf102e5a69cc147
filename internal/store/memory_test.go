package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pokescan/internal/model"
)

func sampleRecord(confidence float64) model.ScanRecord {
	return model.ScanRecord{
		Identity: model.ResolvedIdentity{
			Card:           model.CardIdentity{Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"},
			GradingCompany: model.CompanyPSA,
			GradeNumeric:   10,
			Confidence:     confidence,
		},
		Valuation: model.Valuation{
			Currency:        "USD",
			FairMarketValue: 2025,
			RangeLow:        1883,
			RangeHigh:       2187,
			WindowDays:      90,
		},
		NeedsUserConfirmation: confidence < 0.82,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	created, err := s.CreateScan(ctx, sampleRecord(0.9))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ScanID)
	assert.Equal(t, model.ScanStatusAnalyzed, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := s.GetScan(ctx, created.ScanID)
	require.NoError(t, err)
	assert.Equal(t, created.ScanID, got.ScanID)
	assert.Equal(t, "Charizard", got.Identity.Card.Name)
	assert.Equal(t, 2025, got.Valuation.FairMarketValue)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemory()
	_, err := s.GetScan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConfirmIdempotent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	created, err := s.CreateScan(ctx, sampleRecord(0.5))
	require.NoError(t, err)

	first, err := s.ConfirmScan(ctx, created.ScanID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusConfirmed, first.Status)
	assert.True(t, first.UpdatedAt.After(first.CreatedAt) || first.UpdatedAt.Equal(first.CreatedAt))

	second, err := s.ConfirmScan(ctx, created.ScanID)
	require.NoError(t, err)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestMemoryStore_ConfirmUnknown(t *testing.T) {
	s := NewMemory()
	_, err := s.ConfirmScan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListFilterAndPaging(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		created, err := s.CreateScan(ctx, sampleRecord(0.9))
		require.NoError(t, err)
		ids = append(ids, created.ScanID)
	}
	_, err := s.ConfirmScan(ctx, ids[0])
	require.NoError(t, err)
	_, err = s.ConfirmScan(ctx, ids[1])
	require.NoError(t, err)

	all, err := s.ListScans(ctx, ScanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "newest first")
	}

	confirmed, err := s.ListScans(ctx, ScanFilter{Status: model.ScanStatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)

	page, err := s.ListScans(ctx, ScanFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	past, err := s.ListScans(ctx, ScanFilter{Offset: 99})
	require.NoError(t, err)
	assert.Empty(t, past)
}
