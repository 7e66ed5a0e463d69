package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository interface {
	// CreateBatch inserts every asset and segmentation stub inside one
	// transaction; either all rows land or none do.
	CreateBatch(ctx context.Context, assets []*Asset, segs []*Segmentation) error
	CountByIDs(ctx context.Context, ids []string) (int64, error)
	GetByID(ctx context.Context, id string) (*Asset, error)
	ListByProject(ctx context.Context, projectID string) ([]*Asset, error)
	// DeleteWithDependents removes the asset row and its dependent
	// segmentation rows, child before parent, inside one transaction.
	DeleteWithDependents(ctx context.Context, id string) error

	// Reconciliation queries.
	AllReferencedPaths(ctx context.Context) (map[string]struct{}, error)
	ListAll(ctx context.Context) ([]*Asset, error)
	FindInvalidStatus(ctx context.Context) ([]string, error)
	SetStatus(ctx context.Context, ids []string, status Status) (int64, error)
	FindWithoutProject(ctx context.Context) ([]string, error)
	SumStoredSizeByOwner(ctx context.Context, ownerID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBatch(ctx context.Context, assets []*Asset, segs []*Segmentation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(assets) > 0 {
			if err := tx.Create(assets).Error; err != nil {
				return err
			}
		}
		if len(segs) > 0 {
			if err := tx.Create(segs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("duplicate asset id in batch: %w", err)
	}
	return err
}

func (r *repository) CountByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Asset{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Asset, error) {
	var a Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	return &a, err
}

func (r *repository) ListByProject(ctx context.Context, projectID string) ([]*Asset, error) {
	var assets []*Asset
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&assets).Error
	return assets, err
}

func (r *repository) DeleteWithDependents(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", id).Delete(&Segmentation{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Asset{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAssetNotFound
		}
		return nil
	})
}

func (r *repository) AllReferencedPaths(ctx context.Context) (map[string]struct{}, error) {
	var rows []struct {
		StoragePath   string
		ThumbnailPath string
	}
	err := r.db.WithContext(ctx).Model(&Asset{}).
		Select("storage_path", "thumbnail_path").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	paths := make(map[string]struct{}, len(rows)*2)
	for _, row := range rows {
		if row.StoragePath != "" {
			paths[row.StoragePath] = struct{}{}
		}
		if row.ThumbnailPath != "" {
			paths[row.ThumbnailPath] = struct{}{}
		}
	}
	return paths, nil
}

func (r *repository) ListAll(ctx context.Context) ([]*Asset, error) {
	var assets []*Asset
	err := r.db.WithContext(ctx).Find(&assets).Error
	return assets, err
}

func (r *repository) FindInvalidStatus(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Asset{}).
		Where("status IS NULL OR status = '' OR status NOT IN ?", []Status{
			StatusUnprocessed, StatusQueued, StatusProcessing, StatusCompleted, StatusFailed,
		}).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) SetStatus(ctx context.Context, ids []string, status Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&Asset{}).Where("id IN ?", ids).Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *repository) FindWithoutProject(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Asset{}).
		Joins("LEFT JOIN projects ON projects.id = assets.project_id").
		Where("projects.id IS NULL").
		Pluck("assets.id", &ids).Error
	return ids, err
}

func (r *repository) SumStoredSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Asset{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(stored_size), 0)").Scan(&total).Error
	return total, err
}

// isUniqueViolation detects duplicate-key errors from either backend.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
