package bsvideo

import "github.com/e7canasta/bsvideo/internal/bserrors"

// ErrorKind classifies a bsvideo failure. None of them are fatal to the
// host process — every operation that can fail returns a typed *Error
// instead of terminating.
type ErrorKind = bserrors.Kind

const (
	OpenFailed        = bserrors.OpenFailed
	BadTrack          = bserrors.BadTrack
	IndexBuildFailed  = bserrors.IndexBuildFailed
	UnsupportedFormat = bserrors.UnsupportedFormat
	DecodeError       = bserrors.DecodeError
	FormatMismatch    = bserrors.FormatMismatch
	ArgumentError     = bserrors.ArgumentError
)

// Error is the concrete error type every bsvideo operation returns on
// failure. Use errors.Is(err, bsvideo.BadTrack) (etc.) to classify it.
type Error = bserrors.Error
