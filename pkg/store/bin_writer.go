package store

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/CEA-LIST/sgntx/pkg/codec"
)

// BinWriter appends encoded records to a temporary file that replaces the
// destination only when Commit succeeds. A reader of the destination path
// therefore sees either the previous file or a complete new one.
type BinWriter struct {
	file    *os.File
	tmpPath string
	writer  *bufio.Writer
	codec   *codec.RecordCodec
	config  BinWriterConfig
	buf     []byte
	offset  int64 // Current write offset
	records int64
	done    bool
}

// NewBinWriter creates the destination directory and a temporary file next to
// the destination.
func NewBinWriter(config BinWriterConfig) (*BinWriter, error) {
	if config.FilePath == "" {
		return nil, errors.New("bin writer: empty file path")
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.FilePerm == 0 {
		config.FilePerm = defaultFilePerm
	}

	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, errors.Wrapf(err, "create output directory %s", dir)
	}

	// Same directory as the destination so the final rename stays on one filesystem
	file, err := os.CreateTemp(dir, "."+filepath.Base(config.FilePath)+".tmp-*")
	if err != nil {
		return nil, errors.Wrapf(err, "create temporary file in %s", dir)
	}

	return &BinWriter{
		file:    file,
		tmpPath: file.Name(),
		writer:  bufio.NewWriterSize(file, config.BufferSize),
		codec:   codec.NewRecordCodec(config.Mode),
		config:  config,
		buf:     make([]byte, 0, codec.FixedRecordSize*4),
	}, nil
}

// Append encodes r and buffers it, returning the offset the record starts at
func (w *BinWriter) Append(r *codec.Record) (int64, error) {
	if w.done {
		return 0, ErrClosed
	}

	data, err := w.codec.Append(w.buf[:0], r)
	if err != nil {
		return 0, err
	}
	w.buf = data

	n, err := w.writer.Write(data)
	if err != nil {
		return 0, errors.Wrapf(err, "write %s", w.tmpPath)
	}

	recordOffset := w.offset
	w.offset += int64(n)
	w.records++
	return recordOffset, nil
}

// Commit flushes, fsyncs and renames the temporary file over the destination
func (w *BinWriter) Commit() error {
	if w.done {
		return ErrClosed
	}
	w.done = true

	if err := w.writer.Flush(); err != nil {
		return w.fail(errors.Wrapf(err, "flush %s", w.tmpPath))
	}
	if err := w.file.Sync(); err != nil {
		return w.fail(errors.Wrapf(err, "sync %s", w.tmpPath))
	}
	if err := w.file.Chmod(w.config.FilePerm); err != nil {
		return w.fail(errors.Wrapf(err, "chmod %s", w.tmpPath))
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return errors.Wrapf(err, "close %s", w.tmpPath)
	}
	if err := os.Rename(w.tmpPath, w.config.FilePath); err != nil {
		_ = os.Remove(w.tmpPath)
		return errors.Wrapf(err, "rename to %s", w.config.FilePath)
	}

	// Best effort: persist the rename itself
	_ = syncDir(filepath.Dir(w.config.FilePath))
	return nil
}

// Abort discards everything written so far. Calling it after Commit is a no-op.
func (w *BinWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.fail(nil)
}

func (w *BinWriter) fail(cause error) error {
	closeErr := w.file.Close()
	removeErr := os.Remove(w.tmpPath)
	if cause != nil {
		return cause
	}
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return errors.Wrapf(removeErr, "remove %s", w.tmpPath)
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return errors.Wrapf(closeErr, "close %s", w.tmpPath)
	}
	return nil
}

// Size returns the number of bytes written so far
func (w *BinWriter) Size() int64 {
	return w.offset
}

// Records returns the number of records written so far
func (w *BinWriter) Records() int64 {
	return w.records
}

// Path returns the destination path
func (w *BinWriter) Path() string {
	return w.config.FilePath
}

// tempPath returns the path of the in-progress temporary file
func (w *BinWriter) tempPath() string {
	return w.tmpPath
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
