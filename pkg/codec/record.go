package codec

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// ByteOrder is the wire byte order for every multi-byte field.
var ByteOrder = binary.LittleEndian

const (
	// FixedRecordSize is the encoded size of every record in ModeFixed.
	FixedRecordSize = 16

	// HeadSize covers the chromosome and position fields shared by both modes.
	HeadSize = 5
	// TailSize covers ref, alt and the zygosity flag.
	TailSize = 3

	// MinVariableRecordSize is a variable-mode record with an empty identifier.
	MinVariableRecordSize = HeadSize + 1 + TailSize

	MaxChromosome = 1<<8 - 1
	MaxPosition   = 1<<32 - 1
)

// Mode selects how the identifier field is packed.
type Mode int

const (
	// ModeFixed packs the identifier as an unsigned 64-bit integer.
	ModeFixed Mode = iota
	// ModeVariable packs the identifier as NUL-terminated UTF-8 text.
	ModeVariable
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeVariable:
		return "variable"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode converts "fixed" or "variable" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return ModeFixed, nil
	case "variable":
		return ModeVariable, nil
	default:
		return 0, errors.Newf("unknown identifier mode %q (want fixed or variable)", s)
	}
}

// Record is one parsed variant call
type Record struct {
	Chromosome   uint64 // must fit in 1 byte
	Position     uint64 // must fit in 4 bytes
	ID           string // decimal uint64 in ModeFixed, free text in ModeVariable
	Ref          string // reference allele, only the first character is kept
	Alt          string // alternate allele, only the first character is kept
	Heterozygous bool
}

// Truncated returns a copy of r with both alleles cut to their first byte.
// Empty alleles are left empty.
func (r Record) Truncated() Record {
	if len(r.Ref) > 1 {
		r.Ref = r.Ref[:1]
	}
	if len(r.Alt) > 1 {
		r.Alt = r.Alt[:1]
	}
	return r
}

// TruncateAllele returns the single byte stored for an allele field.
func TruncateAllele(allele string) (byte, error) {
	if allele == "" {
		return 0, ErrEmptyAllele
	}
	if allele[0] >= utf8.RuneSelf {
		return 0, ErrInvalidAllele
	}
	return allele[0], nil
}

// RecordCodec handles serialization and deserialization of records for one mode
type RecordCodec struct {
	mode Mode
}

// NewRecordCodec creates a codec bound to the given identifier mode
func NewRecordCodec(mode Mode) *RecordCodec {
	return &RecordCodec{mode: mode}
}

// Mode returns the identifier mode of the codec.
func (c *RecordCodec) Mode() Mode {
	return c.mode
}

// Size returns the encoded size of r without validating it.
func (c *RecordCodec) Size(r *Record) int {
	if c.mode == ModeFixed {
		return FixedRecordSize
	}
	return HeadSize + len(r.ID) + 1 + TailSize
}

// Encode serializes a record into a new buffer
func (c *RecordCodec) Encode(r *Record) ([]byte, error) {
	return c.Append(make([]byte, 0, c.Size(r)), r)
}

// Append serializes r onto the end of dst. On error dst is returned unchanged.
func (c *RecordCodec) Append(dst []byte, r *Record) ([]byte, error) {
	if r.Chromosome > MaxChromosome {
		return dst, encodeErr("chromosome", errors.Wrapf(ErrFieldOverflow, "%d does not fit in 1 byte", r.Chromosome))
	}
	if r.Position > MaxPosition {
		return dst, encodeErr("position", errors.Wrapf(ErrFieldOverflow, "%d does not fit in 4 bytes", r.Position))
	}
	ref, err := TruncateAllele(r.Ref)
	if err != nil {
		return dst, encodeErr("ref", err)
	}
	alt, err := TruncateAllele(r.Alt)
	if err != nil {
		return dst, encodeErr("alt", err)
	}

	buf := append(dst, byte(r.Chromosome))
	buf = ByteOrder.AppendUint32(buf, uint32(r.Position))

	switch c.mode {
	case ModeFixed:
		id, err := parseFixedID(r.ID)
		if err != nil {
			return dst, encodeErr("id", err)
		}
		buf = ByteOrder.AppendUint64(buf, id)
	case ModeVariable:
		if strings.IndexByte(r.ID, 0) >= 0 {
			return dst, encodeErr("id", errors.Wrap(ErrInvalidIdentifier, "contains a NUL byte"))
		}
		if !utf8.ValidString(r.ID) {
			return dst, encodeErr("id", errors.Wrap(ErrInvalidIdentifier, "not valid UTF-8"))
		}
		buf = append(buf, r.ID...)
		buf = append(buf, 0)
	default:
		return dst, errors.Newf("unsupported mode %s", c.mode)
	}

	var het byte
	if r.Heterozygous {
		het = 1
	}
	return append(buf, ref, alt, het), nil
}

// Decode deserializes one encoded record
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < HeadSize {
		return nil, decodeErr(len(data), errors.Wrapf(ErrTruncatedBuffer, "%d bytes, need at least %d", len(data), HeadSize))
	}

	r := &Record{
		Chromosome: uint64(data[0]),
		Position:   uint64(ByteOrder.Uint32(data[1:5])),
	}

	var tail int
	switch c.mode {
	case ModeFixed:
		if len(data) != FixedRecordSize {
			return nil, decodeErr(len(data), errors.Wrapf(ErrTruncatedBuffer, "fixed record is %d bytes, got %d", FixedRecordSize, len(data)))
		}
		r.ID = strconv.FormatUint(ByteOrder.Uint64(data[5:13]), 10)
		tail = 13
	case ModeVariable:
		end := bytes.IndexByte(data[HeadSize:], 0)
		if end < 0 {
			return nil, decodeErr(HeadSize, errors.Wrap(ErrTruncatedBuffer, "identifier terminator not found"))
		}
		end += HeadSize
		if rest := len(data) - end - 1; rest != TailSize {
			return nil, decodeErr(end+1, errors.Wrapf(ErrTruncatedBuffer, "expected %d bytes after identifier, got %d", TailSize, rest))
		}
		id := data[HeadSize:end]
		if !utf8.Valid(id) {
			return nil, decodeErr(HeadSize, ErrInvalidText)
		}
		r.ID = string(id)
		tail = end + 1
	default:
		return nil, errors.Newf("unsupported mode %s", c.mode)
	}

	for i := tail; i < tail+2; i++ {
		if data[i] >= utf8.RuneSelf {
			return nil, decodeErr(i, errors.Wrapf(ErrInvalidAllele, "0x%02x", data[i]))
		}
	}
	r.Ref = string(data[tail : tail+1])
	r.Alt = string(data[tail+1 : tail+2])
	switch data[tail+2] {
	case 0:
	case 1:
		r.Heterozygous = true
	default:
		return nil, decodeErr(tail+2, errors.Wrapf(ErrInvalidFlag, "0x%02x", data[tail+2]))
	}
	return r, nil
}

// parseFixedID accepts a canonical non-negative decimal integer: ASCII digits
// and no leading zeros, so Decode gives back the same text.
func parseFixedID(s string) (uint64, error) {
	if s == "" {
		return 0, errors.Wrap(ErrInvalidIdentifier, "empty")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errors.Wrapf(ErrInvalidIdentifier, "%q is not a non-negative integer", s)
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, errors.Wrapf(ErrInvalidIdentifier, "%q has leading zeros", s)
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrFieldOverflow, "%s does not fit in 8 bytes", s)
	}
	return id, nil
}
