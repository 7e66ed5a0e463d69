package asset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"spheroseg/internal/imaging"
	"spheroseg/internal/storage"
)

// CleanupLedger is the ordered list of physical paths one ingestion
// attempt has produced. Every entry is deleted, best effort, if the
// attempt does not reach its success terminal; the ledger lives and dies
// with the invocation that created it and is never persisted.
type CleanupLedger struct {
	paths []string
}

func (l *CleanupLedger) Add(path string) {
	l.paths = append(l.paths, path)
}

func (l *CleanupLedger) Paths() []string {
	return l.paths
}

// Discard removes every ledgered path. Deletion failures are logged, not
// returned: a leaked file is an orphan the reconciliation sweep will find.
func (l *CleanupLedger) Discard(logger *slog.Logger) {
	for _, p := range l.paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warn("cleanup failed, file left for orphan sweep", "path", p, "error", err)
		}
	}
	l.paths = nil
}

// PipelineInput describes one uploaded physical file awaiting ingestion.
// SourcePath must already be inside the project's blob directory.
type PipelineInput struct {
	SourcePath   string
	OriginalName string
	ProjectID    string
	OwnerID      string
	DeclaredMime string
	OriginalSize int64
}

// PipelineResult is a row-ready record. The pipeline never inserts it;
// insertion belongs to the batch coordinator so N pipelines can share one
// transaction.
type PipelineResult struct {
	Asset  *Asset
	Ledger *CleanupLedger
	// ReplacedSource is the original file superseded by conversion. It is
	// removed only after the batch commits; until then it stays ledgered
	// so an abort cleans it up with everything else.
	ReplacedSource string
}

// Pipeline runs the per-file ingestion state machine:
// Validate -> MaybeConvert -> Thumbnail -> ExtractMetadata -> BuildRow.
// Transitions are strictly forward; entering Failed at any step discards
// the ledger before the classified error is surfaced.
type Pipeline struct {
	norm   *imaging.Normalizer
	paths  *storage.Translator
	logger *slog.Logger
}

func NewPipeline(norm *imaging.Normalizer, paths *storage.Translator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{norm: norm, paths: paths, logger: logger}
}

func (p *Pipeline) Run(in PipelineInput) (*PipelineResult, error) {
	ledger := &CleanupLedger{}
	ledger.Add(in.SourcePath)

	fail := func(err *IngestError) (*PipelineResult, error) {
		ledger.Discard(p.logger)
		return nil, err
	}

	// Validate. Upload and processing may be separated by queueing; a
	// vanished source is a server fault, not the client's.
	if _, err := os.Stat(in.SourcePath); err != nil {
		return fail(ingestFault(in.OriginalName, FaultServer,
			fmt.Errorf("%w: %s", ErrSourceMissing, in.SourcePath)))
	}

	ext := strings.ToLower(filepath.Ext(in.OriginalName))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(in.SourcePath))
	}
	if !p.norm.Supported(ext) {
		return fail(ingestFault(in.OriginalName, FaultUnsupported,
			fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)))
	}

	// MaybeConvert. The converted path goes into the ledger before the
	// call so cleanup is complete even when conversion dies halfway.
	stored := in.SourcePath
	replaced := ""
	if p.norm.NeedsConversion(ext) {
		converted := strings.TrimSuffix(in.SourcePath, filepath.Ext(in.SourcePath)) + imaging.CanonicalExt
		ledger.Add(converted)
		if err := p.norm.Convert(in.SourcePath, converted); err != nil {
			return fail(ingestFromProcess(in.OriginalName, err))
		}
		stored = converted
		replaced = in.SourcePath
	}

	// Thumbnail, ledgered before the call for the same reason.
	thumb := thumbnailPath(stored)
	ledger.Add(thumb)
	if err := p.norm.Thumbnail(stored, thumb); err != nil {
		return fail(ingestFromProcess(in.OriginalName, err))
	}

	// ExtractMetadata never errors; undecodable content degrades to zero
	// dimensions and a best-guess format label.
	width, height, format := imaging.Probe(stored)

	// BuildRow. Identifier shape is the one validation that is the
	// caller's fault rather than the file's.
	if _, err := uuid.Parse(in.OwnerID); err != nil {
		return fail(ingestFault(in.OriginalName, FaultClient,
			fmt.Errorf("%w: owner %q", ErrInvalidIdentifier, in.OwnerID)))
	}
	if _, err := uuid.Parse(in.ProjectID); err != nil {
		return fail(ingestFault(in.OriginalName, FaultClient,
			fmt.Errorf("%w: project %q", ErrInvalidIdentifier, in.ProjectID)))
	}

	info, err := os.Stat(stored)
	if err != nil {
		return fail(ingestFault(in.OriginalName, FaultServer, err))
	}

	mime := in.DeclaredMime
	if mime == "" && format != "" {
		mime = "image/" + format
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	now := time.Now()
	a := &Asset{
		ID:            uuid.New().String(),
		ProjectID:     in.ProjectID,
		OwnerID:       in.OwnerID,
		Name:          in.OriginalName,
		StoragePath:   p.paths.StorePath(stored),
		ThumbnailPath: p.paths.StorePath(thumb),
		Width:         width,
		Height:        height,
		OriginalSize:  in.OriginalSize,
		OriginalMime:  mime,
		StoredSize:    info.Size(),
		Status:        StatusUnprocessed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return &PipelineResult{Asset: a, Ledger: ledger, ReplacedSource: replaced}, nil
}

func thumbnailPath(stored string) string {
	dir := filepath.Dir(stored)
	base := filepath.Base(stored)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "thumb_"+stem+imaging.CanonicalExt)
}
