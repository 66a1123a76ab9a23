package codec

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Encode errors
var (
	ErrFieldOverflow     = errors.New("field overflow")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrEmptyAllele       = errors.New("empty allele")
	ErrInvalidAllele     = errors.New("allele does not start with a single-byte character")
)

// Decode errors
var (
	ErrTruncatedBuffer = errors.New("truncated buffer")
	ErrInvalidText     = errors.New("identifier is not valid UTF-8")
	ErrInvalidFlag     = errors.New("invalid zygosity flag")
)

// EncodeError reports which record field could not be packed.
type EncodeError struct {
	Field string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Field, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError reports where in the buffer decoding failed.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func encodeErr(field string, err error) error {
	return &EncodeError{Field: field, Err: err}
}

func decodeErr(offset int, err error) error {
	return &DecodeError{Offset: offset, Err: err}
}
