package rrepr

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidSampleSize means a sample length cannot be drawn without
	// replacement from some dimension
	ErrInvalidSampleSize = errors.New("invalid sample size")
	// ErrUnsupportedKind means the object is neither a DataArray nor a Dataset
	ErrUnsupportedKind = errors.New("unsupported kind")
	// ErrFormattingFailed matches every *FormatError
	ErrFormattingFailed = errors.New("formatting failed")
)

// FormatError reports a formatter rejecting rendered text. Its message is the
// formatter's diagnostic output, unchanged.
type FormatError struct {
	Stderr string
	Err    error
}

func (e *FormatError) Error() string { return e.Stderr }

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormattingFailed }
