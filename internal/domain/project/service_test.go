package project

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const ownerID = "11111111-1111-1111-1111-111111111111"

func setupService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:project_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Project{}))
	return NewService(NewRepository(db))
}

func TestCreateAndGet(t *testing.T) {
	svc := setupService(t)

	p, err := svc.Create(context.Background(), ownerID, "plate 7", "day 3 spheroids")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "plate 7", got.Name)
	assert.Equal(t, ownerID, got.OwnerID)
}

func TestGetUnknownProject(t *testing.T) {
	svc := setupService(t)
	_, err := svc.GetByID(context.Background(), "22222222-2222-2222-2222-222222222222")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestListByOwner(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Create(context.Background(), ownerID, "a", "")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), ownerID, "b", "")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "99999999-9999-9999-9999-999999999999", "c", "")
	require.NoError(t, err)

	projects, err := svc.ListByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestCanMutate(t *testing.T) {
	svc := setupService(t)

	p, err := svc.Create(context.Background(), ownerID, "plate 7", "")
	require.NoError(t, err)

	ok, err := svc.CanMutate(context.Background(), p.ID, ownerID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanMutate(context.Background(), p.ID, "99999999-9999-9999-9999-999999999999")
	require.NoError(t, err)
	assert.False(t, ok)

	// A missing project is a denial, not an error.
	ok, err = svc.CanMutate(context.Background(), "22222222-2222-2222-2222-222222222222", ownerID)
	require.NoError(t, err)
	assert.False(t, ok)
}
