// Package errs defines the sentinel errors shared by the bayesfit packages.
//
// Callers wrap these with fmt.Errorf("...: %w", err) and test them with
// errors.Is, so the underlying diagnostic message is preserved while the
// error class stays machine-checkable.
package errs

import "errors"

var (
	// ErrInvalidArgument reports malformed configuration or input data,
	// e.g. a non-positive sample count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSamplingFailure reports that the sampling engine could not produce
	// a fit: initialization rejected, non-finite density, step size collapse
	// or cancellation.
	ErrSamplingFailure = errors.New("sampling failure")

	// ErrInvalidArchive reports a malformed or truncated draws archive.
	ErrInvalidArchive = errors.New("invalid draws archive")

	// ErrChecksumMismatch reports that an archive payload does not match its stored checksum.
	ErrChecksumMismatch = errors.New("draws archive checksum mismatch")

	// ErrRunNotFound reports a ledger lookup for an unknown run id.
	ErrRunNotFound = errors.New("run not found")

	// ErrCheckFailed reports that at least one posterior check evaluated to false.
	ErrCheckFailed = errors.New("posterior check failed")
)
