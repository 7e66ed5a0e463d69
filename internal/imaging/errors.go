package imaging

import (
	"fmt"
	"image"
	"strings"
)

// FailureKind classifies why a file could not be processed. The kinds map
// to distinct caller-visible messages, so classification happens here at
// the decode boundary rather than in the HTTP layer.
type FailureKind string

const (
	FailureTooLarge    FailureKind = "too_large"
	FailureUnsupported FailureKind = "unsupported_or_corrupted"
	FailureOutOfMemory FailureKind = "out_of_memory"
	FailureGeneric     FailureKind = "generic"
)

// ProcessError wraps a decode/encode failure with its classification.
type ProcessError struct {
	Kind FailureKind
	Path string
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

func newProcessError(path string, err error) *ProcessError {
	return &ProcessError{Kind: classify(err), Path: path, Err: err}
}

func classify(err error) FailureKind {
	if err == nil {
		return FailureGeneric
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory"),
		strings.Contains(msg, "cannot allocate"),
		strings.Contains(msg, "makeslice"):
		return FailureOutOfMemory
	case err == image.ErrFormat,
		strings.Contains(msg, "unknown format"),
		strings.Contains(msg, "image: "),
		strings.Contains(msg, "invalid format"),
		strings.Contains(msg, "unexpected eof"),
		strings.Contains(msg, "corrupt"),
		strings.Contains(msg, "unsupported"),
		strings.Contains(msg, "bad "),
		strings.Contains(msg, "invalid "):
		return FailureUnsupported
	default:
		return FailureGeneric
	}
}
