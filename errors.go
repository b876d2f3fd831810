package sst

import "github.com/nyxdb/sstcore/internal/errs"

// Error kinds, one exported type per §7 kind. Each carries its contextual
// fields as plain struct fields (rather than only a formatted message) so
// callers can recover exactly what failed with errors.As.
type (
	// KeyTooLargeError reports a user_key longer than MaxKeyLen.
	KeyTooLargeError = errs.KeyTooLargeError
	// ValueTooLargeError reports a value longer than MaxValueLen.
	ValueTooLargeError = errs.ValueTooLargeError
	// SortOrderError reports a write whose key was not strictly greater
	// than the previous write.
	SortOrderError = errs.SortOrderError
	// TableFullError reports a write that would exceed TableFullSize.
	TableFullError = errs.TableFullError
	// BlockTooSmallError reports a block smaller than the minimum trailer
	// size.
	BlockTooSmallError = errs.BlockTooSmallError
	// UnpackError reports a framed entry or trailer that failed to decode.
	UnpackError = errs.UnpackError
	// Crc32cFailureError reports a payload whose computed CRC32C did not
	// match its stored CRC32C.
	Crc32cFailureError = errs.Crc32cFailureError
	// CorruptionError reports a self-consistency check failure.
	CorruptionError = errs.CorruptionError
	// LogicError reports an internal precondition violated by this
	// library's own code.
	LogicError = errs.LogicError
	// SystemError wraps an underlying I/O failure.
	SystemError = errs.SystemError
	// TooManyOpenFilesError reports that an external file manager's handle
	// pool was exhausted.
	TooManyOpenFilesError = errs.TooManyOpenFilesError
	// EmptyBatchError reports a batch-oriented call supplied zero entries
	// where at least one is required.
	EmptyBatchError = errs.EmptyBatchError
)
