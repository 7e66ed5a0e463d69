package asset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCapacityDefaultsWhenNoQuotaRow(t *testing.T) {
	db := setupDB(t)
	g := NewQuotaGuard(db, 1_000_000, quietLogger())

	assert.NoError(t, g.CheckCapacity(context.Background(), testOwnerID, 999_999))

	err := g.CheckCapacity(context.Background(), testOwnerID, 1_000_001)
	var denial *QuotaDenial
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, int64(1_000_000), denial.Limit)
	assert.Equal(t, int64(0), denial.Used)
}

func TestCheckCapacityDenialCarriesExactFigures(t *testing.T) {
	db := setupDB(t)
	g := NewQuotaGuard(db, 1_000_000, quietLogger())

	require.NoError(t, db.Create(&OwnerQuota{
		OwnerID:    testOwnerID,
		UsedBytes:  900_000,
		LimitBytes: 1_000_000,
	}).Error)

	err := g.CheckCapacity(context.Background(), testOwnerID, 200_000)
	var denial *QuotaDenial
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, testOwnerID, denial.OwnerID)
	assert.Equal(t, int64(1_000_000), denial.Limit)
	assert.Equal(t, int64(900_000), denial.Used)
	assert.Equal(t, int64(200_000), denial.Incoming)
	assert.Equal(t, int64(100_000), denial.Available())
}

func TestCommitUsageCreatesRowWithDefaultCeiling(t *testing.T) {
	db := setupDB(t)
	g := NewQuotaGuard(db, 5_000, quietLogger())

	require.NoError(t, g.CommitUsage(context.Background(), testOwnerID, 1_234))

	var q OwnerQuota
	require.NoError(t, db.Where("owner_id = ?", testOwnerID).First(&q).Error)
	assert.Equal(t, int64(1_234), q.UsedBytes)
	assert.Equal(t, int64(5_000), q.LimitBytes)
}

func TestCommitUsageClampsAtZero(t *testing.T) {
	db := setupDB(t)
	g := NewQuotaGuard(db, 5_000, quietLogger())

	require.NoError(t, db.Create(&OwnerQuota{
		OwnerID:    testOwnerID,
		UsedBytes:  100,
		LimitBytes: 5_000,
	}).Error)

	require.NoError(t, g.CommitUsage(context.Background(), testOwnerID, -500))

	var q OwnerQuota
	require.NoError(t, db.Where("owner_id = ?", testOwnerID).First(&q).Error)
	assert.Equal(t, int64(0), q.UsedBytes)
}

func TestRecomputeResetsCounterFromRows(t *testing.T) {
	db := setupDB(t)
	g := NewQuotaGuard(db, 5_000, quietLogger())

	require.NoError(t, db.Create(&OwnerQuota{
		OwnerID:    testOwnerID,
		UsedBytes:  999_999,
		LimitBytes: 5_000,
	}).Error)
	require.NoError(t, db.Create([]*Asset{
		{ID: "33333333-3333-3333-3333-333333333331", ProjectID: testProjectID, OwnerID: testOwnerID, StoredSize: 300, Status: StatusUnprocessed},
		{ID: "33333333-3333-3333-3333-333333333332", ProjectID: testProjectID, OwnerID: testOwnerID, StoredSize: 200, Status: StatusUnprocessed},
	}).Error)

	total, err := g.Recompute(context.Background(), testOwnerID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), total)

	var q OwnerQuota
	require.NoError(t, db.Where("owner_id = ?", testOwnerID).First(&q).Error)
	assert.Equal(t, int64(500), q.UsedBytes)
}
