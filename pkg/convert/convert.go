// Package convert turns one VCF text source into one binary record stream.
package convert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/CEA-LIST/sgntx/pkg/codec"
	"github.com/CEA-LIST/sgntx/pkg/store"
	"github.com/CEA-LIST/sgntx/pkg/vcf"
)

// LineError locates a parse or encode failure in the source.
type LineError struct {
	Line int // 1-based
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Stats summarises one conversion.
type Stats struct {
	Lines   int   // lines read, including comments and blanks
	Skipped int   // comment and blank lines
	Records int64 // records encoded
	Bytes   int64 // bytes written
}

// Sink receives encoded records in input order. *store.BinWriter is the file
// sink; StreamSink adapts an io.Writer.
type Sink interface {
	Append(r *codec.Record) (int64, error)
}

// Converter runs the per-line parse/encode loop for a single identifier mode.
// It keeps no state between calls and may be shared by goroutines.
type Converter struct {
	mode       codec.Mode
	parser     *vcf.Parser
	bufferSize int
}

// Option configures a Converter.
type Option func(*Converter)

// WithBufferSize sets the read and write buffer size used by ConvertFile.
func WithBufferSize(n int) Option {
	return func(c *Converter) {
		c.bufferSize = n
	}
}

// New creates a converter for the given mode.
func New(mode codec.Mode, opts ...Option) *Converter {
	c := &Converter{
		mode:       mode,
		parser:     vcf.NewParser(mode),
		bufferSize: store.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the identifier mode of the converter.
func (c *Converter) Mode() codec.Mode {
	return c.mode
}

// Convert reads src line by line and appends one record per data line to
// sink. The first bad line aborts the conversion with a *LineError.
func (c *Converter) Convert(ctx context.Context, src io.Reader, sink Sink) (Stats, error) {
	var stats Stats
	reader := bufio.NewReaderSize(src, c.bufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		raw, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return stats, errors.Wrap(readErr, "read source")
		}
		if raw == "" && readErr == io.EOF {
			return stats, nil
		}
		stats.Lines++

		line := strings.TrimSpace(raw)
		if vcf.Skip(line) {
			stats.Skipped++
		} else {
			record, err := c.parser.ParseLine(line)
			if err != nil {
				return stats, &LineError{Line: stats.Lines, Err: err}
			}
			if _, err := sink.Append(record); err != nil {
				return stats, &LineError{Line: stats.Lines, Err: err}
			}
			stats.Records++
		}

		if readErr == io.EOF {
			return stats, nil
		}
	}
}

// ConvertFile converts sourcePath into destinationPath. The destination is
// replaced atomically on success and left untouched on any failure,
// including cancellation.
func (c *Converter) ConvertFile(ctx context.Context, sourcePath, destinationPath string) (Stats, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "open source %s", sourcePath)
	}
	defer src.Close()

	writer, err := store.NewBinWriter(store.BinWriterConfig{
		FilePath:   destinationPath,
		Mode:       c.mode,
		BufferSize: c.bufferSize,
	})
	if err != nil {
		return Stats{}, err
	}

	stats, err := c.Convert(ctx, src, writer)
	stats.Records = writer.Records()
	stats.Bytes = writer.Size()
	if err != nil {
		_ = writer.Abort()
		return stats, errors.Wrapf(err, "convert %s", sourcePath)
	}
	if err := writer.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// StreamSink encodes records straight onto an io.Writer.
type StreamSink struct {
	w      io.Writer
	codec  *codec.RecordCodec
	buf    []byte
	offset int64
}

// NewStreamSink creates a sink writing mode-encoded records to w.
func NewStreamSink(w io.Writer, mode codec.Mode) *StreamSink {
	return &StreamSink{w: w, codec: codec.NewRecordCodec(mode)}
}

// Append encodes and writes r, returning the offset it starts at.
func (s *StreamSink) Append(r *codec.Record) (int64, error) {
	data, err := s.codec.Append(s.buf[:0], r)
	if err != nil {
		return 0, err
	}
	s.buf = data

	n, err := s.w.Write(data)
	if err != nil {
		return 0, err
	}
	offset := s.offset
	s.offset += int64(n)
	return offset, nil
}

// Size returns the number of bytes written.
func (s *StreamSink) Size() int64 {
	return s.offset
}
