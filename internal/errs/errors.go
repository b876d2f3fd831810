// Package errs defines the tagged error kinds shared by every layer of the
// store: block, table, and the root package. Each kind is a distinct
// exported type carrying its contextual fields, matched with errors.As
// rather than by string comparison, so callers can recover the inputs that
// triggered a failure.
package errs

import "fmt"

// KeyTooLargeError reports a user_key longer than MaxKeyLen.
type KeyTooLargeError struct {
	Length int
	Limit  int
}

func (e *KeyTooLargeError) Error() string {
	return fmt.Sprintf("key too large: %d bytes exceeds limit %d", e.Length, e.Limit)
}

// ValueTooLargeError reports a value longer than MaxValueLen.
type ValueTooLargeError struct {
	Length int
	Limit  int
}

func (e *ValueTooLargeError) Error() string {
	return fmt.Sprintf("value too large: %d bytes exceeds limit %d", e.Length, e.Limit)
}

// SortOrderError reports a write whose key was not strictly greater than
// the previous write.
type SortOrderError struct {
	LastKey       []byte
	LastTimestamp uint64
	NewKey        []byte
	NewTimestamp  uint64
}

func (e *SortOrderError) Error() string {
	return fmt.Sprintf("sort order violation: (%x, %d) did not follow (%x, %d)",
		e.NewKey, e.NewTimestamp, e.LastKey, e.LastTimestamp)
}

// TableFullError reports a write that would exceed TableFullSize.
type TableFullError struct {
	Size  uint64
	Limit uint64
}

func (e *TableFullError) Error() string {
	return fmt.Sprintf("table full: size %d would exceed limit %d", e.Size, e.Limit)
}

// BlockTooSmallError reports a block smaller than the minimum trailer size.
type BlockTooSmallError struct {
	Length   int
	Required int
}

func (e *BlockTooSmallError) Error() string {
	return fmt.Sprintf("block too small: %d bytes, %d required", e.Length, e.Required)
}

// UnpackError reports a framed entry or trailer that failed to decode.
type UnpackError struct {
	Inner   error
	Context string
}

func (e *UnpackError) Error() string {
	return fmt.Sprintf("unpack error in %s: %v", e.Context, e.Inner)
}

func (e *UnpackError) Unwrap() error { return e.Inner }

// Crc32cFailureError reports a payload whose computed CRC32C did not match
// its stored CRC32C.
type Crc32cFailureError struct {
	Start    uint64
	Limit    uint64
	Computed uint32
	Stored   uint32
}

func (e *Crc32cFailureError) Error() string {
	return fmt.Sprintf("crc32c mismatch in [%d, %d): computed %#x, stored %#x",
		e.Start, e.Limit, e.Computed, e.Stored)
}

// CorruptionError reports a self-consistency check failure: offsets out of
// order, a trailer extent crossing another, the wrong frame tag for a slot.
type CorruptionError struct {
	Context string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corruption: %s", e.Context)
}

// LogicError reports an internal precondition violated by this library's
// own code — a bug indicator, never a consequence of caller input.
type LogicError struct {
	Context string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error: %s", e.Context)
}

// SystemError wraps an underlying I/O failure.
type SystemError struct {
	What  string
	Inner error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system error: %s: %v", e.What, e.Inner)
}

func (e *SystemError) Unwrap() error { return e.Inner }

// TooManyOpenFilesError reports that an external file manager's handle pool
// was exhausted.
type TooManyOpenFilesError struct {
	Limit int
}

func (e *TooManyOpenFilesError) Error() string {
	return fmt.Sprintf("too many open files: limit %d", e.Limit)
}

// EmptyBatchError reports a batch-oriented call supplied zero entries where
// at least one is required.
type EmptyBatchError struct{}

func (e *EmptyBatchError) Error() string {
	return "empty batch: at least one entry is required"
}
