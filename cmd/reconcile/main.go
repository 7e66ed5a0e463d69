package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"spheroseg/internal/config"
	"spheroseg/internal/database"
	"spheroseg/internal/domain/asset"
	"spheroseg/internal/domain/reconcile"
	"spheroseg/internal/storage"
)

// Operator entry point for the reconciliation sweeps. Dry-run by default;
// -apply makes the orphan sweep and status repair destructive.
func main() {
	apply := flag.Bool("apply", false, "actually delete orphans and repair statuses (default: report only)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	paths, err := storage.NewTranslator(cfg.StorageRoot, logger)
	if err != nil {
		log.Fatal(err)
	}

	engine := reconcile.NewEngine(asset.NewRepository(db), paths, logger)
	ctx := context.Background()
	dryRun := !*apply

	orphans, err := engine.SweepOrphans(ctx, dryRun)
	if err != nil {
		log.Fatalf("orphan sweep failed: %v", err)
	}

	audit, err := engine.Audit(ctx)
	if err != nil {
		log.Fatalf("consistency audit failed: %v", err)
	}

	repair, err := engine.Repair(ctx, dryRun)
	if err != nil {
		log.Fatalf("status repair failed: %v", err)
	}

	log.Printf("reconciliation completed: scanned=%d orphans=%d removed=%d invalid_status=%d missing_files=%d without_project=%d statuses_repaired=%d dry_run=%v",
		orphans.Scanned, len(orphans.Orphans), orphans.Removed,
		len(audit.InvalidStatus), len(audit.MissingFiles), len(audit.WithoutProject),
		repair.StatusesRepaired, dryRun)
}
