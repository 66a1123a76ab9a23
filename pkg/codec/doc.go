// Package codec packs parsed variant records into a fixed-layout binary format
// and unpacks them again.
//
// # Record Format
//
// Two identifier modes exist. The mode is chosen once per conversion run and
// carried by the RecordCodec; it is never stored in the data itself.
//
// Fixed-identifier mode, 16 bytes per record:
//
//	[Chrom(1)][Pos(4)][ID(8)][Ref(1)][Alt(1)][Het(1)]
//
// Variable-identifier mode:
//
//	[Chrom(1)][Pos(4)][ID(n)][0x00][Ref(1)][Alt(1)][Het(1)]
//
// Fields:
//   - Chrom: chromosome number, 0-255
//   - Pos: position, unsigned 32-bit (little-endian)
//   - ID: unsigned 64-bit id (little-endian) in fixed mode, UTF-8 text
//     terminated by a NUL byte in variable mode
//   - Ref, Alt: first byte of the reference and alternate alleles
//   - Het: 1 when the sample is heterozygous, 0 otherwise
//
// All multi-byte integers use ByteOrder (little-endian) regardless of the host
// architecture.
//
// # Usage
//
//	c := codec.NewRecordCodec(codec.ModeFixed)
//
//	encoded, err := c.Encode(&codec.Record{
//	    Chromosome: 1, Position: 12345, ID: "42",
//	    Ref: "A", Alt: "G", Heterozygous: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	record, err := c.Decode(encoded)
//
// # Truncation
//
// Only the first character of each allele is stored. Encoding a record with
// Ref "AT" produces the same bytes as Ref "A", so the round trip holds for
// Record.Truncated rather than for the original record.
//
// # Error Handling
//
// Encode failures wrap ErrFieldOverflow, ErrInvalidIdentifier, ErrEmptyAllele
// or ErrInvalidAllele in an *EncodeError naming the field. Decode failures wrap
// ErrTruncatedBuffer, ErrInvalidText or ErrInvalidFlag in a *DecodeError
// carrying the byte offset. Use errors.Is to classify them.
//
// # Thread Safety
//
// RecordCodec holds no mutable state and is safe for concurrent use.
package codec
