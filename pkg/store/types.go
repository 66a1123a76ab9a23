package store

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/CEA-LIST/sgntx/pkg/codec"
)

const (
	// DefaultBufferSize is used when a config leaves BufferSize at zero.
	DefaultBufferSize = 64 * 1024

	defaultFilePerm os.FileMode = 0o644
	defaultDirPerm  os.FileMode = 0o750
)

// BinWriterConfig holds configuration for a binary record writer
type BinWriterConfig struct {
	FilePath   string      // Final destination; written only on Commit
	Mode       codec.Mode  // Identifier mode used to encode records
	BufferSize int         // Write buffer size
	FilePerm   os.FileMode // Permissions of the committed file (0 = 0644)
}

// BinReaderConfig holds configuration for a binary record reader
type BinReaderConfig struct {
	FilePath    string     // Path to the binary file
	Mode        codec.Mode // Identifier mode the file was written with
	BufferSize  int        // Read buffer size
	StartOffset int64      // Offset to start reading from; must be a record boundary
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *codec.Record
	Err() error
	Close() error
}

// Errors
var (
	ErrCorruption = errors.New("data corruption detected")
	ErrClosed     = errors.New("writer already committed or aborted")
)

// CorruptionError reports a record that could not be read back. It matches
// ErrCorruption and unwraps to the decode failure, if any.
type CorruptionError struct {
	Offset int64
	Err    error
}

func (e *CorruptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: partial record at offset %d", ErrCorruption, e.Offset)
	}
	return fmt.Sprintf("%v: record at offset %d: %v", ErrCorruption, e.Offset, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorruption
}
