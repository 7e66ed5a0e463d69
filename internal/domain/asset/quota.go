package asset

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// QuotaGuard enforces per-owner storage ceilings. Enforcement is advisory:
// a missing quota row means the default ceiling, read errors allow rather
// than block, and the read-then-write usage update is not locked, so two
// concurrent batches from one owner can transiently exceed the limit.
type QuotaGuard struct {
	db           *gorm.DB
	defaultLimit int64
	logger       *slog.Logger
}

func NewQuotaGuard(db *gorm.DB, defaultLimit int64, logger *slog.Logger) *QuotaGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotaGuard{db: db, defaultLimit: defaultLimit, logger: logger}
}

// CheckCapacity returns nil when incoming bytes fit under the owner's
// ceiling, or a *QuotaDenial carrying the exact figures when they do not.
func (g *QuotaGuard) CheckCapacity(ctx context.Context, ownerID string, incoming int64) error {
	used, limit := g.usage(ctx, ownerID)
	if used+incoming > limit {
		return &QuotaDenial{OwnerID: ownerID, Limit: limit, Used: used, Incoming: incoming}
	}
	return nil
}

// CommitUsage moves the consumed-bytes counter by delta (negative on
// retirement), creating the quota row with the default ceiling when the
// owner has none yet. Counters are clamped at zero.
func (g *QuotaGuard) CommitUsage(ctx context.Context, ownerID string, delta int64) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q OwnerQuota
		err := tx.Where("owner_id = ?", ownerID).First(&q).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			q = OwnerQuota{OwnerID: ownerID, LimitBytes: g.defaultLimit}
		} else if err != nil {
			return err
		}

		q.UsedBytes += delta
		if q.UsedBytes < 0 {
			q.UsedBytes = 0
		}
		q.UpdatedAt = time.Now()
		return tx.Save(&q).Error
	})
}

// Recompute resets the counter to the sum of actual stored sizes. This is
// the only mechanism that corrects drift; the counter is never reconciled
// continuously.
func (g *QuotaGuard) Recompute(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := g.db.WithContext(ctx).Model(&Asset{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(stored_size), 0)").Scan(&total).Error
	if err != nil {
		return 0, err
	}

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q OwnerQuota
		ferr := tx.Where("owner_id = ?", ownerID).First(&q).Error
		if errors.Is(ferr, gorm.ErrRecordNotFound) {
			q = OwnerQuota{OwnerID: ownerID, LimitBytes: g.defaultLimit}
		} else if ferr != nil {
			return ferr
		}
		q.UsedBytes = total
		q.UpdatedAt = time.Now()
		return tx.Save(&q).Error
	})
	return total, err
}

// usage reads the owner's counter and ceiling. Absent rows and read
// failures both degrade to zero-used/default-limit so quota problems never
// fail the caller.
func (g *QuotaGuard) usage(ctx context.Context, ownerID string) (used, limit int64) {
	var q OwnerQuota
	err := g.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, g.defaultLimit
	}
	if err != nil {
		g.logger.Warn("quota read failed, allowing by default", "owner_id", ownerID, "error", err)
		return 0, g.defaultLimit
	}
	limit = q.LimitBytes
	if limit <= 0 {
		limit = g.defaultLimit
	}
	return q.UsedBytes, limit
}
