package asset

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"spheroseg/internal/domain/project"
	"spheroseg/internal/imaging"
	"spheroseg/internal/storage"
)

const (
	testOwnerID   = "11111111-1111-1111-1111-111111111111"
	testProjectID = "22222222-2222-2222-2222-222222222222"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:asset_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&project.Project{}, &Asset{}, &Segmentation{}, &OwnerQuota{}))
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, root string) (*Pipeline, *storage.Translator) {
	t.Helper()
	paths, err := storage.NewTranslator(root, quietLogger())
	require.NoError(t, err)
	return NewPipeline(imaging.NewNormalizer(0), paths, quietLogger()), paths
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	require.NoError(t, png.Encode(f, img))
}

func writeTestTIFF(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	require.NoError(t, tiff.Encode(f, img, nil))
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Publish(event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) published(event string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

type fakeCache struct {
	mu          sync.Mutex
	store       map[string][]*Asset
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]*Asset{}}
}

func (c *fakeCache) Get(projectID string) ([]*Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.store[projectID]
	return items, ok
}

func (c *fakeCache) Set(projectID string, items []*Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[projectID] = items
}

func (c *fakeCache) Invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, projectID)
	c.invalidated = append(c.invalidated, projectID)
}

type fakeAuth struct {
	allow bool
	err   error
}

func (a *fakeAuth) CanMutate(_ context.Context, _, _ string) (bool, error) {
	return a.allow, a.err
}

// dirEntries returns the file names currently under dir, recursively.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, filepath.Base(path))
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return names
}
