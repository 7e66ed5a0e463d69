package asset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineBuildsRowForRenderableUpload(t *testing.T) {
	root := t.TempDir()
	pipe, _ := newTestPipeline(t, root)

	src := filepath.Join(root, testProjectID, "culture_day3.png")
	writeTestPNG(t, src, 640, 480)

	res, err := pipe.Run(PipelineInput{
		SourcePath:   src,
		OriginalName: "culture_day3.png",
		ProjectID:    testProjectID,
		OwnerID:      testOwnerID,
		OriginalSize: 1024,
	})
	require.NoError(t, err)

	a := res.Asset
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, testProjectID, a.ProjectID)
	assert.Equal(t, testOwnerID, a.OwnerID)
	assert.Equal(t, "culture_day3.png", a.Name)
	assert.Equal(t, "/uploads/"+testProjectID+"/culture_day3.png", a.StoragePath)
	assert.Equal(t, "/uploads/"+testProjectID+"/thumb_culture_day3.png", a.ThumbnailPath)
	assert.Equal(t, 640, a.Width)
	assert.Equal(t, 480, a.Height)
	assert.Equal(t, "image/png", a.OriginalMime)
	assert.Equal(t, int64(1024), a.OriginalSize)
	assert.Greater(t, a.StoredSize, int64(0))
	assert.Equal(t, StatusUnprocessed, a.Status)
	assert.Empty(t, res.ReplacedSource, "renderable uploads are stored as-is")

	// Source and thumbnail both on disk.
	assert.FileExists(t, src)
	assert.FileExists(t, filepath.Join(root, testProjectID, "thumb_culture_day3.png"))
}

func TestPipelineConvertsLegacyFormat(t *testing.T) {
	root := t.TempDir()
	pipe, _ := newTestPipeline(t, root)

	src := filepath.Join(root, testProjectID, "scan.tif")
	writeTestTIFF(t, src, 320, 240)

	res, err := pipe.Run(PipelineInput{
		SourcePath:   src,
		OriginalName: "scan.tif",
		ProjectID:    testProjectID,
		OwnerID:      testOwnerID,
	})
	require.NoError(t, err)

	a := res.Asset
	assert.Equal(t, "/uploads/"+testProjectID+"/scan.png", a.StoragePath)
	assert.Equal(t, 320, a.Width)
	assert.Equal(t, 240, a.Height)
	assert.Equal(t, "image/png", a.OriginalMime)

	// The superseded original is reported but not yet removed; it only
	// goes away after the batch commits.
	assert.Equal(t, src, res.ReplacedSource)
	assert.FileExists(t, src)
	assert.FileExists(t, filepath.Join(root, testProjectID, "scan.png"))
}

func TestPipelineRejectsCorruptContentAndCleansUp(t *testing.T) {
	root := t.TempDir()
	pipe, _ := newTestPipeline(t, root)

	dir := filepath.Join(root, testProjectID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	src := filepath.Join(dir, "noise.tif")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	_, err := pipe.Run(PipelineInput{
		SourcePath:   src,
		OriginalName: "noise.tif",
		ProjectID:    testProjectID,
		OwnerID:      testOwnerID,
	})
	require.Error(t, err)

	var ie *IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FaultUnsupported, ie.Kind)
	assert.Equal(t, "noise.tif", ie.File)
	assert.False(t, ie.ClientFault())

	assert.Empty(t, dirEntries(t, dir), "failed ingestion must leave no files behind")
}

func TestPipelineRejectsUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	pipe, _ := newTestPipeline(t, root)

	dir := filepath.Join(root, testProjectID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	src := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o644))

	_, err := pipe.Run(PipelineInput{
		SourcePath:   src,
		OriginalName: "report.pdf",
		ProjectID:    testProjectID,
		OwnerID:      testOwnerID,
	})
	require.Error(t, err)

	var ie *IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FaultUnsupported, ie.Kind)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, dirEntries(t, dir))
}

func TestPipelineRejectsMalformedOwnerIdentifier(t *testing.T) {
	root := t.TempDir()
	pipe, _ := newTestPipeline(t, root)

	dir := filepath.Join(root, testProjectID)
	src := filepath.Join(dir, "ok.png")
	writeTestPNG(t, src, 32, 32)

	_, err := pipe.Run(PipelineInput{
		SourcePath:   src,
		OriginalName: "ok.png",
		ProjectID:    testProjectID,
		OwnerID:      "not-a-uuid",
	})
	require.Error(t, err)

	var ie *IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FaultClient, ie.Kind)
	assert.True(t, ie.ClientFault())
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	assert.Empty(t, dirEntries(t, dir), "client faults still tear down produced files")
}

func TestPipelineReportsMissingSourceAsServerFault(t *testing.T) {
	root := t.TempDir()
	pipe, _ := newTestPipeline(t, root)

	_, err := pipe.Run(PipelineInput{
		SourcePath:   filepath.Join(root, testProjectID, "vanished.png"),
		OriginalName: "vanished.png",
		ProjectID:    testProjectID,
		OwnerID:      testOwnerID,
	})
	require.Error(t, err)

	var ie *IngestError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FaultServer, ie.Kind)
	assert.ErrorIs(t, err, ErrSourceMissing)
}
