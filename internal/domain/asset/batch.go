package asset

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	EventAssetCreated = "asset.created"
	EventAssetDeleted = "asset.deleted"
)

// BatchCoordinator runs N per-file pipelines concurrently and commits
// their rows as one all-or-nothing unit. Pipelines share no mutable state;
// they rendezvous only at the final insert.
type BatchCoordinator struct {
	repo     Repository
	quota    *QuotaGuard
	pipeline *Pipeline
	notifier Notifier
	cache    ListingCache
	logger   *slog.Logger
}

func NewBatchCoordinator(
	repo Repository,
	quota *QuotaGuard,
	pipeline *Pipeline,
	notifier Notifier,
	cache ListingCache,
	logger *slog.Logger,
) *BatchCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchCoordinator{
		repo:     repo,
		quota:    quota,
		pipeline: pipeline,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
	}
}

// Ingest processes every file and, only if all of them reached their
// row-ready state and the owner has capacity, inserts all rows inside a
// single transaction. Any failure aborts the whole batch and deletes every
// physical file any pipeline in the batch produced.
func (c *BatchCoordinator) Ingest(ctx context.Context, projectID, ownerID string, files []PipelineInput) ([]*Asset, error) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]*PipelineResult, len(files))
	faults := make([]*IngestError, len(files))

	// Pipelines run to completion or failure on their own; there is no
	// mid-flight cancellation, so a plain group is enough to guarantee
	// every fault is observed before the transaction is opened.
	var g errgroup.Group
	for i := range files {
		i := i
		g.Go(func() error {
			res, err := c.pipeline.Run(files[i])
			if err != nil {
				ie, ok := err.(*IngestError)
				if !ok {
					ie = ingestFault(files[i].OriginalName, FaultServer, err)
				}
				faults[i] = ie
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.discardAll(results)
		return nil, &BatchError{Failures: collectFaults(faults)}
	}

	// Quota check happens before the relational commit so denied bytes
	// are never persisted as rows. The physical files already produced
	// are torn down with the rest of the abort path.
	var incoming int64
	for _, res := range results {
		incoming += res.Asset.StoredSize
	}
	if err := c.quota.CheckCapacity(ctx, ownerID, incoming); err != nil {
		c.discardAll(results)
		return nil, err
	}

	assets := make([]*Asset, len(results))
	segs := make([]*Segmentation, len(results))
	ids := make([]string, len(results))
	now := time.Now()
	for i, res := range results {
		assets[i] = res.Asset
		ids[i] = res.Asset.ID
		segs[i] = &Segmentation{
			ID:        uuid.New().String(),
			AssetID:   res.Asset.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := c.repo.CreateBatch(ctx, assets, segs); err != nil {
		c.discardAll(results)
		return nil, err
	}

	// Everything past the commit is best-effort: the rows are durable,
	// the rest converges eventually.
	if err := c.quota.CommitUsage(ctx, ownerID, incoming); err != nil {
		c.logger.Warn("quota usage commit failed after batch", "owner_id", ownerID, "delta", incoming, "error", err)
	}

	if n, err := c.repo.CountByIDs(ctx, ids); err != nil || n != int64(len(ids)) {
		c.logger.Warn("post-commit verification mismatch",
			"project_id", projectID, "expected", len(ids), "visible", n, "error", err)
	}

	for _, res := range results {
		if res.ReplacedSource == "" {
			continue
		}
		if err := os.Remove(res.ReplacedSource); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("converted source not removed, file left for orphan sweep",
				"path", res.ReplacedSource, "error", err)
		}
	}

	c.notifier.Publish(EventAssetCreated, assets)
	c.cache.Invalidate(projectID)

	return assets, nil
}

// discardAll tears down the ledgers of every pipeline that reached its
// row-ready state. Failed pipelines have already discarded their own.
func (c *BatchCoordinator) discardAll(results []*PipelineResult) {
	for _, res := range results {
		if res != nil {
			res.Ledger.Discard(c.logger)
		}
	}
}

func collectFaults(faults []*IngestError) []*IngestError {
	out := make([]*IngestError, 0, len(faults))
	for _, f := range faults {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}
