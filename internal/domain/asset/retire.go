package asset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"spheroseg/internal/storage"
)

// RetirementCoordinator deletes assets. Relational rows are the source of
// truth for existence, so row deletion commits first; physical cleanup is
// best effort afterwards and an undeleted file is just an orphan for the
// reconciliation sweep.
type RetirementCoordinator struct {
	repo     Repository
	quota    *QuotaGuard
	paths    *storage.Translator
	auth     Authorizer
	notifier Notifier
	cache    ListingCache
	logger   *slog.Logger

	// removeFile and removeDir are swappable so tests can inject
	// physical-delete failures.
	removeFile func(string) error
	removeDir  func(string) error
}

func NewRetirementCoordinator(
	repo Repository,
	quota *QuotaGuard,
	paths *storage.Translator,
	auth Authorizer,
	notifier Notifier,
	cache ListingCache,
	logger *slog.Logger,
) *RetirementCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetirementCoordinator{
		repo:       repo,
		quota:      quota,
		paths:      paths,
		auth:       auth,
		notifier:   notifier,
		cache:      cache,
		logger:     logger,
		removeFile: os.Remove,
		removeDir:  os.Remove,
	}
}

// Retire removes one asset: permission check, transactional row deletion
// (dependents first), then best-effort physical cleanup, quota release,
// cache invalidation and empty-directory pruning. A denial terminates
// before any side effect.
func (c *RetirementCoordinator) Retire(ctx context.Context, assetID, actorID string) error {
	a, err := c.repo.GetByID(ctx, assetID)
	if err != nil {
		return err
	}

	ok, err := c.auth.CanMutate(ctx, a.ProjectID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPermitted
	}

	if err := c.repo.DeleteWithDependents(ctx, a.ID); err != nil {
		return err
	}

	// The row is gone; nothing below may fail the retirement.
	storedDir := c.removePhysical(a)

	if err := c.quota.CommitUsage(ctx, a.OwnerID, -a.StoredSize); err != nil {
		c.logger.Warn("quota release failed after retirement", "owner_id", a.OwnerID, "error", err)
	}

	c.cache.Invalidate(a.ProjectID)
	c.notifier.Publish(EventAssetDeleted, a)

	if storedDir != "" {
		c.pruneEmptyDir(storedDir)
	}

	return nil
}

// RetireOutcome is one entry of a batch retirement report.
type RetireOutcome struct {
	AssetID string `json:"asset_id"`
	Err     error  `json:"-"`
}

func (o RetireOutcome) Succeeded() bool { return o.Err == nil }

// RetireBatch retires each asset independently. Unlike ingestion, each
// deletion is already a complete committed unit, so failures are isolated
// per item instead of aborting the batch.
func (c *RetirementCoordinator) RetireBatch(ctx context.Context, assetIDs []string, actorID string) []RetireOutcome {
	outcomes := make([]RetireOutcome, 0, len(assetIDs))
	for _, id := range assetIDs {
		outcomes = append(outcomes, RetireOutcome{
			AssetID: id,
			Err:     c.Retire(ctx, id, actorID),
		})
	}
	return outcomes
}

// removePhysical deletes the stored file and preview, logging instead of
// failing: a missing file here is normal drift, not an error. Returns the
// directory of the stored file for pruning, when resolvable.
func (c *RetirementCoordinator) removePhysical(a *Asset) string {
	dir := ""
	for _, storePath := range []string{a.StoragePath, a.ThumbnailPath} {
		if storePath == "" {
			continue
		}
		fsPath, err := c.paths.FilesystemPath(storePath)
		if err != nil {
			c.logger.Warn("retired asset path did not resolve", "asset_id", a.ID, "path", storePath, "error", err)
			continue
		}
		if storePath == a.StoragePath {
			dir = filepath.Dir(fsPath)
		}
		if err := c.removeFile(fsPath); err != nil {
			if os.IsNotExist(err) {
				c.logger.Info("retired asset file already gone", "asset_id", a.ID, "path", fsPath)
			} else {
				c.logger.Warn("retired asset file not removed, left for orphan sweep",
					"asset_id", a.ID, "path", fsPath, "error", err)
			}
		}
	}
	return dir
}

// pruneEmptyDir removes the project's blob directory when the retirement
// emptied it.
func (c *RetirementCoordinator) pruneEmptyDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := c.removeDir(dir); err != nil {
		c.logger.Warn("empty project directory not pruned", "dir", dir, "error", err)
	}
}
