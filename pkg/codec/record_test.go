package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func TestRecordCodec_EncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		mode   Mode
		record Record
	}{
		{
			name:   "fixed heterozygous",
			mode:   ModeFixed,
			record: Record{Chromosome: 1, Position: 12345, ID: "42", Ref: "A", Alt: "G", Heterozygous: true},
		},
		{
			name:   "fixed homozygous",
			mode:   ModeFixed,
			record: Record{Chromosome: 22, Position: 16050075, ID: "587697622", Ref: "C", Alt: "T"},
		},
		{
			name:   "fixed max values",
			mode:   ModeFixed,
			record: Record{Chromosome: MaxChromosome, Position: MaxPosition, ID: "18446744073709551615", Ref: "N", Alt: "A"},
		},
		{
			name:   "fixed zero id",
			mode:   ModeFixed,
			record: Record{Chromosome: 0, Position: 0, ID: "0", Ref: "T", Alt: "C", Heterozygous: true},
		},
		{
			name:   "variable rs id",
			mode:   ModeVariable,
			record: Record{Chromosome: 2, Position: 999, ID: "rs908", Ref: "C", Alt: "T"},
		},
		{
			name:   "variable empty id",
			mode:   ModeVariable,
			record: Record{Chromosome: 3, Position: 1, ID: "", Ref: "G", Alt: "A", Heterozygous: true},
		},
		{
			name:   "variable unicode id",
			mode:   ModeVariable,
			record: Record{Chromosome: 7, Position: 117559590, ID: "variant-é-🧬", Ref: "A", Alt: "T"},
		},
		{
			name:   "multi base alleles are truncated",
			mode:   ModeVariable,
			record: Record{Chromosome: 4, Position: 88, ID: "ins1", Ref: "AT", Alt: "GCC"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			codec := NewRecordCodec(tc.mode)

			encoded, err := codec.Encode(&tc.record)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if len(encoded) != codec.Size(&tc.record) {
				t.Errorf("Size mismatch: encoded %d bytes, Size() = %d", len(encoded), codec.Size(&tc.record))
			}

			decoded, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if want := tc.record.Truncated(); *decoded != want {
				t.Errorf("Round trip mismatch: got %+v, want %+v", *decoded, want)
			}
		})
	}
}

func TestRecordCodec_FixedLayout(t *testing.T) {
	codec := NewRecordCodec(ModeFixed)

	encoded, err := codec.Encode(&Record{Chromosome: 1, Position: 12345, ID: "42", Ref: "A", Alt: "G", Heterozygous: true})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(encoded) != FixedRecordSize {
		t.Fatalf("Expected %d bytes, got %d", FixedRecordSize, len(encoded))
	}
	if encoded[0] != 1 {
		t.Errorf("Chromosome byte: got %d, want 1", encoded[0])
	}
	if pos := binary.LittleEndian.Uint32(encoded[1:5]); pos != 12345 {
		t.Errorf("Position: got %d, want 12345", pos)
	}
	if id := binary.LittleEndian.Uint64(encoded[5:13]); id != 42 {
		t.Errorf("ID: got %d, want 42", id)
	}
	if encoded[13] != 'A' || encoded[14] != 'G' {
		t.Errorf("Alleles: got %q %q, want A G", encoded[13], encoded[14])
	}
	if encoded[15] != 1 {
		t.Errorf("Zygosity flag: got %d, want 1", encoded[15])
	}
}

func TestRecordCodec_VariableLayout(t *testing.T) {
	codec := NewRecordCodec(ModeVariable)

	encoded, err := codec.Encode(&Record{Chromosome: 2, Position: 999, ID: "rs908", Ref: "C", Alt: "T"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{2, 0xe7, 0x03, 0x00, 0x00, 'r', 's', '9', '0', '8', 0, 'C', 'T', 0}
	if !bytes.Equal(encoded, want) {
		t.Errorf("Encoded bytes mismatch:\n got %v\nwant %v", encoded, want)
	}
	if len(encoded) != 1+4+len("rs908")+1+1+1+1 {
		t.Errorf("Unexpected length %d", len(encoded))
	}
}

func TestRecordCodec_FixedSizeInvariant(t *testing.T) {
	codec := NewRecordCodec(ModeFixed)
	ids := []string{"0", "1", "4294967296", "18446744073709551615"}

	for _, id := range ids {
		encoded, err := codec.Encode(&Record{Chromosome: 9, Position: 77, ID: id, Ref: "ACGT", Alt: "T"})
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", id, err)
		}
		if len(encoded) != FixedRecordSize {
			t.Errorf("ID %s: expected %d bytes, got %d", id, FixedRecordSize, len(encoded))
		}
	}
}

func TestRecordCodec_AlleleTruncation(t *testing.T) {
	for _, mode := range []Mode{ModeFixed, ModeVariable} {
		t.Run(mode.String(), func(t *testing.T) {
			codec := NewRecordCodec(mode)
			long := Record{Chromosome: 1, Position: 10, ID: "5", Ref: "AT", Alt: "GG"}
			short := Record{Chromosome: 1, Position: 10, ID: "5", Ref: "A", Alt: "G"}

			a, err := codec.Encode(&long)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			b, err := codec.Encode(&short)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(a, b) {
				t.Errorf("Truncated encoding differs: %v vs %v", a, b)
			}
		})
	}
}

func TestRecordCodec_EncodeErrors(t *testing.T) {
	valid := Record{Chromosome: 1, Position: 1, ID: "1", Ref: "A", Alt: "C"}

	testCases := []struct {
		name   string
		mode   Mode
		mutate func(r *Record)
		want   error
		field  string
	}{
		{"chromosome overflow", ModeFixed, func(r *Record) { r.Chromosome = 300 }, ErrFieldOverflow, "chromosome"},
		{"position overflow", ModeFixed, func(r *Record) { r.Position = MaxPosition + 1 }, ErrFieldOverflow, "position"},
		{"id overflow", ModeFixed, func(r *Record) { r.ID = "18446744073709551616" }, ErrFieldOverflow, "id"},
		{"id not numeric", ModeFixed, func(r *Record) { r.ID = "rs12" }, ErrInvalidIdentifier, "id"},
		{"id negative", ModeFixed, func(r *Record) { r.ID = "-5" }, ErrInvalidIdentifier, "id"},
		{"id empty in fixed mode", ModeFixed, func(r *Record) { r.ID = "" }, ErrInvalidIdentifier, "id"},
		{"id leading zeros", ModeFixed, func(r *Record) { r.ID = "007" }, ErrInvalidIdentifier, "id"},
		{"id zero padded zero", ModeFixed, func(r *Record) { r.ID = "00" }, ErrInvalidIdentifier, "id"},
		{"id with NUL", ModeVariable, func(r *Record) { r.ID = "rs\x001" }, ErrInvalidIdentifier, "id"},
		{"id invalid utf8", ModeVariable, func(r *Record) { r.ID = "rs\xff" }, ErrInvalidIdentifier, "id"},
		{"empty ref", ModeFixed, func(r *Record) { r.Ref = "" }, ErrEmptyAllele, "ref"},
		{"empty alt", ModeVariable, func(r *Record) { r.Alt = "" }, ErrEmptyAllele, "alt"},
		{"non ascii ref", ModeFixed, func(r *Record) { r.Ref = "é" }, ErrInvalidAllele, "ref"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)

			_, err := NewRecordCodec(tc.mode).Encode(&r)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}

			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				t.Fatalf("Expected *EncodeError, got %T", err)
			}
			if encErr.Field != tc.field {
				t.Errorf("Field: got %q, want %q", encErr.Field, tc.field)
			}
		})
	}
}

func TestRecordCodec_AppendLeavesDstOnError(t *testing.T) {
	codec := NewRecordCodec(ModeFixed)
	dst := []byte{0xAA}

	out, err := codec.Append(dst, &Record{Chromosome: 500, ID: "1", Ref: "A", Alt: "C"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !bytes.Equal(out, []byte{0xAA}) {
		t.Errorf("dst changed: %v", out)
	}

	out, err = codec.Append(dst, &Record{Chromosome: 5, ID: "1", Ref: "A", Alt: "C"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if len(out) != 1+FixedRecordSize || out[0] != 0xAA || out[1] != 5 {
		t.Errorf("Unexpected append result: %v", out)
	}
}

func TestRecordCodec_DecodeErrors(t *testing.T) {
	fixed := NewRecordCodec(ModeFixed)
	variable := NewRecordCodec(ModeVariable)

	good, err := variable.Encode(&Record{Chromosome: 2, Position: 999, ID: "rs908", Ref: "C", Alt: "T"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	testCases := []struct {
		name  string
		codec *RecordCodec
		data  []byte
		want  error
	}{
		{"empty buffer", fixed, nil, ErrTruncatedBuffer},
		{"fixed short", fixed, make([]byte, 15), ErrTruncatedBuffer},
		{"fixed long", fixed, make([]byte, 17), ErrTruncatedBuffer},
		{"variable header only", variable, []byte{1, 0, 0, 0, 0}, ErrTruncatedBuffer},
		{"variable no terminator", variable, []byte{1, 0, 0, 0, 0, 'r', 's', 'C', 'T', 0x01}, ErrTruncatedBuffer},
		{"variable short tail", variable, good[:len(good)-1], ErrTruncatedBuffer},
		{"variable trailing bytes", variable, append(append([]byte{}, good...), 0), ErrTruncatedBuffer},
		{"variable invalid utf8", variable, []byte{1, 0, 0, 0, 0, 0xff, 0xfe, 0, 'A', 'C', 0}, ErrInvalidText},
		{"bad zygosity flag", variable, []byte{1, 0, 0, 0, 0, 'x', 0, 'A', 'C', 7}, ErrInvalidFlag},
		{"non ascii ref byte", variable, []byte{1, 0, 0, 0, 0, 'x', 0, 0xc3, 'C', 0}, ErrInvalidAllele},
		{"non ascii alt byte", fixed, []byte{1, 0, 0, 0, 0, 7, 0, 0, 0, 0, 0, 0, 0, 'A', 0x80, 1}, ErrInvalidAllele},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.codec.Decode(tc.data)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Errorf("Expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestRecordCodec_DecodeScansFromOffsetFive(t *testing.T) {
	// Position bytes contain a zero; the terminator scan must not see them.
	data := []byte{1, 0x10, 0x00, 0x00, 0x00, 'i', 'd', 0, 'A', 'C', 1}

	r, err := NewRecordCodec(ModeVariable).Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if r.ID != "id" || r.Position != 16 || !r.Heterozygous {
		t.Errorf("Unexpected record: %+v", *r)
	}
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"fixed", ModeFixed, false},
		{"FIXED", ModeFixed, false},
		{"", ModeFixed, false},
		{"variable", ModeVariable, false},
		{" Variable ", ModeVariable, false},
		{"compressed", 0, true},
	}

	for _, tc := range testCases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if s := Mode(9).String(); !strings.HasPrefix(s, "mode(") {
		t.Errorf("Unexpected string for unknown mode: %s", s)
	}
}

func TestTruncateAllele(t *testing.T) {
	b, err := TruncateAllele("GATTACA")
	if err != nil || b != 'G' {
		t.Errorf("TruncateAllele(GATTACA) = %q, %v", b, err)
	}
	if _, err := TruncateAllele(""); !errors.Is(err, ErrEmptyAllele) {
		t.Errorf("Expected ErrEmptyAllele, got %v", err)
	}
	if _, err := TruncateAllele("ñ"); !errors.Is(err, ErrInvalidAllele) {
		t.Errorf("Expected ErrInvalidAllele, got %v", err)
	}
}

func TestRecordCodec_FixedZeroIDRoundTrip(t *testing.T) {
	c := NewRecordCodec(ModeFixed)
	in := Record{Chromosome: 1, Position: 2, ID: "0", Ref: "A", Alt: "G"}

	data, err := c.Encode(&in)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if *out != in {
		t.Errorf("Round trip mismatch: got %+v, want %+v", *out, in)
	}
}
