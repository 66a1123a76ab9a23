package store

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/CEA-LIST/sgntx/pkg/codec"
)

// BinReader provides sequential access to records in a binary record stream
type BinReader struct {
	closer io.Closer
	reader *bufio.Reader
	codec  *codec.RecordCodec
	frame  []byte
	offset int64
}

// NewBinReader opens the binary file named in config
func NewBinReader(config BinReaderConfig) (*BinReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "open binary file")
	}

	// Seek to start offset if specified
	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, errors.Wrapf(err, "seek to offset %d", config.StartOffset)
		}
	}

	r := NewStreamReader(file, config.Mode, config.BufferSize)
	r.closer = file
	r.offset = config.StartOffset
	return r, nil
}

// NewStreamReader reads records from an arbitrary stream, such as a request
// body. Close does not close src.
func NewStreamReader(src io.Reader, mode codec.Mode, bufferSize int) *BinReader {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &BinReader{
		reader: bufio.NewReaderSize(src, bufferSize),
		codec:  codec.NewRecordCodec(mode),
		frame:  make([]byte, 0, codec.FixedRecordSize*4),
	}
}

// ReadNext reads the next record. It returns io.EOF at a clean end of stream
// and an error matching ErrCorruption for a partial or undecodable record.
func (r *BinReader) ReadNext() (*codec.Record, error) {
	start := r.offset

	var err error
	if r.codec.Mode() == codec.ModeFixed {
		err = r.readFixed()
	} else {
		err = r.readVariable()
	}
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, &CorruptionError{Offset: start}
		}
		return nil, err
	}
	r.offset += int64(len(r.frame))

	record, err := r.codec.Decode(r.frame)
	if err != nil {
		return nil, &CorruptionError{Offset: start, Err: err}
	}
	return record, nil
}

func (r *BinReader) readFixed() error {
	r.frame = r.frame[:codec.FixedRecordSize]
	_, err := io.ReadFull(r.reader, r.frame)
	return err
}

// readVariable reads head, NUL-terminated identifier and tail into r.frame.
func (r *BinReader) readVariable() error {
	r.frame = r.frame[:codec.HeadSize]
	if _, err := io.ReadFull(r.reader, r.frame); err != nil {
		return err
	}

	id, err := r.reader.ReadSlice(0)
	for err == bufio.ErrBufferFull {
		r.frame = append(r.frame, id...)
		id, err = r.reader.ReadSlice(0)
	}
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	r.frame = append(r.frame, id...)

	n := len(r.frame)
	r.frame = append(r.frame, 0, 0, 0)
	if _, err := io.ReadFull(r.reader, r.frame[n:]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// ReadAll drains the stream.
func (r *BinReader) ReadAll() ([]*codec.Record, error) {
	var records []*codec.Record
	for {
		rec, err := r.ReadNext()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Offset returns the current read offset
func (r *BinReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator for records
func (r *BinReader) Iterator() RecordIterator {
	return &binRecordIterator{reader: r}
}

// Close closes the underlying file, if the reader opened one
func (r *BinReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// binRecordIterator implements RecordIterator for streaming access
type binRecordIterator struct {
	reader *BinReader
	record *codec.Record
	err    error
}

func (it *binRecordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.record, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *binRecordIterator) Record() *codec.Record {
	return it.record
}

// Err returns the error that stopped iteration, or nil at a clean end.
func (it *binRecordIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *binRecordIterator) Close() error {
	// Don't close the underlying reader as it's owned by the caller
	return nil
}
