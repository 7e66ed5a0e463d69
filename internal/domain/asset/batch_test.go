package asset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type batchFixture struct {
	coord    *BatchCoordinator
	repo     Repository
	notifier *fakeNotifier
	cache    *fakeCache
	quota    *QuotaGuard
	db       *gorm.DB
}

func newTestBatch(t *testing.T, root string, defaultQuota int64) batchFixture {
	t.Helper()
	db := setupDB(t)
	repo := NewRepository(db)
	quota := NewQuotaGuard(db, defaultQuota, quietLogger())
	pipe, _ := newTestPipeline(t, root)
	notifier := &fakeNotifier{}
	cache := newFakeCache()
	coord := NewBatchCoordinator(repo, quota, pipe, notifier, cache, quietLogger())
	return batchFixture{coord: coord, repo: repo, notifier: notifier, cache: cache, quota: quota, db: db}
}

func TestBatchIngestCommitsAllRows(t *testing.T) {
	root := t.TempDir()
	fx := newTestBatch(t, root, 1<<30)

	dir := filepath.Join(root, testProjectID)
	pngPath := filepath.Join(dir, "well_a1.png")
	tif := filepath.Join(dir, "well_a2.tif")
	writeTestPNG(t, pngPath, 64, 64)
	writeTestTIFF(t, tif, 64, 64)

	assets, err := fx.coord.Ingest(context.Background(), testProjectID, testOwnerID, []PipelineInput{
		{SourcePath: pngPath, OriginalName: "well_a1.png", ProjectID: testProjectID, OwnerID: testOwnerID},
		{SourcePath: tif, OriginalName: "well_a2.tif", ProjectID: testProjectID, OwnerID: testOwnerID},
	})
	require.NoError(t, err)
	require.Len(t, assets, 2)

	rows, err := fx.repo.ListByProject(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// One segmentation stub per asset.
	for _, a := range assets {
		var n int64
		require.NoError(t, fx.db.Model(&Segmentation{}).Where("asset_id = ?", a.ID).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	}

	// The superseded tif is gone once the batch committed; the converted
	// file and both thumbnails remain.
	_, statErr := os.Stat(tif)
	assert.True(t, os.IsNotExist(statErr))
	assert.FileExists(t, filepath.Join(dir, "well_a2.png"))
	assert.FileExists(t, filepath.Join(dir, "thumb_well_a1.png"))
	assert.FileExists(t, filepath.Join(dir, "thumb_well_a2.png"))

	// Usage moved by the committed bytes.
	var total int64
	for _, a := range assets {
		total += a.StoredSize
	}
	err = fx.quota.CheckCapacity(context.Background(), testOwnerID, (1<<30)-total+1)
	var denial *QuotaDenial
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, total, denial.Used)

	assert.True(t, fx.notifier.published(EventAssetCreated))
	assert.Contains(t, fx.cache.invalidated, testProjectID)
}

func TestBatchIngestAbortsWhollyOnOneBadFile(t *testing.T) {
	root := t.TempDir()
	fx := newTestBatch(t, root, 1<<30)

	dir := filepath.Join(root, testProjectID)
	good1 := filepath.Join(dir, "ok1.png")
	good2 := filepath.Join(dir, "ok2.png")
	bad := filepath.Join(dir, "bad.tif")
	writeTestPNG(t, good1, 32, 32)
	writeTestPNG(t, good2, 32, 32)
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

	assets, err := fx.coord.Ingest(context.Background(), testProjectID, testOwnerID, []PipelineInput{
		{SourcePath: good1, OriginalName: "ok1.png", ProjectID: testProjectID, OwnerID: testOwnerID},
		{SourcePath: bad, OriginalName: "bad.tif", ProjectID: testProjectID, OwnerID: testOwnerID},
		{SourcePath: good2, OriginalName: "ok2.png", ProjectID: testProjectID, OwnerID: testOwnerID},
	})
	require.Error(t, err)
	assert.Nil(t, assets)

	var be *BatchError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Failures, 1)
	assert.Equal(t, "bad.tif", be.Failures[0].File)
	assert.Equal(t, FaultUnsupported, be.Failures[0].Kind)

	rows, err := fx.repo.ListByProject(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Empty(t, rows, "an aborted batch persists no rows")

	assert.Empty(t, dirEntries(t, dir), "an aborted batch leaves no files")
	assert.False(t, fx.notifier.published(EventAssetCreated))
}

func TestBatchIngestDeniedByQuotaBeforeCommit(t *testing.T) {
	root := t.TempDir()
	fx := newTestBatch(t, root, 10) // ten bytes

	dir := filepath.Join(root, testProjectID)
	src := filepath.Join(dir, "big.png")
	writeTestPNG(t, src, 256, 256)

	assets, err := fx.coord.Ingest(context.Background(), testProjectID, testOwnerID, []PipelineInput{
		{SourcePath: src, OriginalName: "big.png", ProjectID: testProjectID, OwnerID: testOwnerID},
	})
	require.Error(t, err)
	assert.Nil(t, assets)

	var denial *QuotaDenial
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, int64(10), denial.Limit)
	assert.Greater(t, denial.Incoming, int64(10))

	rows, err := fx.repo.ListByProject(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Empty(t, rows, "denied bytes are never persisted as rows")
	assert.Empty(t, dirEntries(t, dir))
}

func TestBatchIngestEmptyInputIsNoop(t *testing.T) {
	root := t.TempDir()
	fx := newTestBatch(t, root, 1<<30)

	assets, err := fx.coord.Ingest(context.Background(), testProjectID, testOwnerID, nil)
	require.NoError(t, err)
	assert.Nil(t, assets)
	assert.False(t, fx.notifier.published(EventAssetCreated))
}
