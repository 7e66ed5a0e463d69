package asset

import (
	"errors"
	"fmt"

	"spheroseg/internal/imaging"
)

var (
	ErrAssetNotFound     = errors.New("asset not found")
	ErrNotPermitted      = errors.New("you may not modify this asset")
	ErrInvalidIdentifier = errors.New("owner or project identifier is not a valid uuid")
	ErrSourceMissing     = errors.New("uploaded file is missing on disk")
	ErrUnsupportedFormat = errors.New("file format is not supported")
)

// FaultKind is the caller-visible classification of an ingestion failure.
type FaultKind string

const (
	FaultClient      FaultKind = "client_input"
	FaultTooLarge    FaultKind = "too_large"
	FaultUnsupported FaultKind = "unsupported_or_corrupted"
	FaultOutOfMemory FaultKind = "out_of_memory"
	FaultServer      FaultKind = "server"
)

// IngestError is the only error type an ingestion pipeline surfaces; raw
// decode or filesystem errors never cross the pipeline boundary.
type IngestError struct {
	File string
	Kind FaultKind
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %s: %v", e.File, e.Kind, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// ClientFault reports whether the failure was caused by the caller's input
// rather than file content or server state.
func (e *IngestError) ClientFault() bool { return e.Kind == FaultClient }

func ingestFault(file string, kind FaultKind, err error) *IngestError {
	return &IngestError{File: file, Kind: kind, Err: err}
}

// ingestFromProcess folds an imaging classification into the ingestion
// taxonomy. Conversion, thumbnail and metadata failures all look the same
// to the caller: the file could not be fully processed.
func ingestFromProcess(file string, err error) *IngestError {
	var pe *imaging.ProcessError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case imaging.FailureTooLarge:
			return ingestFault(file, FaultTooLarge, err)
		case imaging.FailureUnsupported:
			return ingestFault(file, FaultUnsupported, err)
		case imaging.FailureOutOfMemory:
			return ingestFault(file, FaultOutOfMemory, err)
		}
	}
	return ingestFault(file, FaultServer, err)
}

// QuotaDenial reports a capacity check that refused an upload, carrying
// the exact figures for caller-visible messaging.
type QuotaDenial struct {
	OwnerID  string
	Limit    int64
	Used     int64
	Incoming int64
}

func (e *QuotaDenial) Error() string {
	return fmt.Sprintf("storage quota exceeded: limit=%d used=%d incoming=%d available=%d",
		e.Limit, e.Used, e.Incoming, e.Available())
}

func (e *QuotaDenial) Available() int64 {
	if e.Used >= e.Limit {
		return 0
	}
	return e.Limit - e.Used
}

// BatchError aggregates per-file ingestion failures from one batch. The
// batch itself is all-or-nothing; this only preserves which files failed
// and why.
type BatchError struct {
	Failures []*IngestError
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch ingestion failed: %d file(s) rejected", len(e.Failures))
}
