package reconcile

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"spheroseg/internal/domain/asset"
	"spheroseg/internal/storage"
)

// workDirs are subtrees under the blob root the orphan sweep never
// touches: in-flight processing output, logs and backups look like
// orphans but are not.
var workDirs = map[string]bool{
	"tmp":        true,
	"temp":       true,
	"processing": true,
	"logs":       true,
	"backups":    true,
	".trash":     true,
}

// OrphanReport lists physical files with no referencing row.
type OrphanReport struct {
	Scanned int      `json:"scanned"`
	Orphans []string `json:"orphans"` // store paths
	Removed int      `json:"removed"`
	DryRun  bool     `json:"dry_run"`
}

// AuditReport counts rows that disagree with the blob store or the schema.
type AuditReport struct {
	InvalidStatus   []string `json:"invalid_status"`   // repairable
	MissingFiles    []string `json:"missing_files"`    // reported only
	WithoutProject  []string `json:"without_project"`  // reported only
	AssetsInspected int      `json:"assets_inspected"`
}

// RepairReport records what a repair run changed.
type RepairReport struct {
	StatusesRepaired int64 `json:"statuses_repaired"`
	DryRun           bool  `json:"dry_run"`
}

// Engine repairs drift between the relational store and the blob store.
// Both sweeps are idempotent and safe to re-run; dry-run computes exactly
// the findings a destructive run would act on, with zero mutation.
type Engine struct {
	repo   asset.Repository
	paths  *storage.Translator
	logger *slog.Logger

	removeFile func(string) error
}

func NewEngine(repo asset.Repository, paths *storage.Translator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:       repo,
		paths:      paths,
		logger:     logger,
		removeFile: os.Remove,
	}
}

// SweepOrphans enumerates every file under the blob root and deletes (or,
// in dry-run, reports) those no asset row references.
func (e *Engine) SweepOrphans(ctx context.Context, dryRun bool) (*OrphanReport, error) {
	referenced, err := e.repo.AllReferencedPaths(ctx)
	if err != nil {
		return nil, err
	}

	report := &OrphanReport{DryRun: dryRun}
	root := e.paths.Root()

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			if path != root && workDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		report.Scanned++
		storePath := e.paths.StorePath(path)
		if _, ok := referenced[storePath]; ok {
			return nil
		}

		report.Orphans = append(report.Orphans, storePath)
		if dryRun {
			return nil
		}
		if err := e.removeFile(path); err != nil {
			e.logger.Warn("orphan not removed", "path", path, "error", err)
			return nil
		}
		report.Removed++
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("orphan sweep finished",
		"scanned", report.Scanned, "orphans", len(report.Orphans),
		"removed", report.Removed, "dry_run", dryRun)
	return report, nil
}

// Audit counts rows with an invalid lifecycle status, rows whose files
// vanished from disk and rows with no owning project. It never mutates.
func (e *Engine) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{}

	invalid, err := e.repo.FindInvalidStatus(ctx)
	if err != nil {
		return nil, err
	}
	report.InvalidStatus = invalid

	orphanProjects, err := e.repo.FindWithoutProject(ctx)
	if err != nil {
		return nil, err
	}
	report.WithoutProject = orphanProjects

	assets, err := e.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	report.AssetsInspected = len(assets)
	for _, a := range assets {
		fsPath, perr := e.paths.FilesystemPath(a.StoragePath)
		if perr != nil {
			report.MissingFiles = append(report.MissingFiles, a.ID)
			continue
		}
		if _, serr := os.Stat(fsPath); serr != nil {
			report.MissingFiles = append(report.MissingFiles, a.ID)
		}
	}

	return report, nil
}

// Repair sets the default status on rows whose status is null or invalid.
// Missing-file and orphaned-project rows are reported by Audit but left
// alone: they can indicate a bug worth manual review, and silent deletion
// would destroy the evidence.
func (e *Engine) Repair(ctx context.Context, dryRun bool) (*RepairReport, error) {
	invalid, err := e.repo.FindInvalidStatus(ctx)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{DryRun: dryRun}
	if dryRun {
		report.StatusesRepaired = int64(len(invalid))
		return report, nil
	}

	n, err := e.repo.SetStatus(ctx, invalid, asset.StatusUnprocessed)
	if err != nil {
		return nil, err
	}
	report.StatusesRepaired = n

	e.logger.Info("status repair finished", "repaired", n)
	return report, nil
}
