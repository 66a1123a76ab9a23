//go:build bench
// +build bench

package codec

import (
	"strings"
	"testing"
)

var benchRecords = []struct {
	name   string
	mode   Mode
	record Record
}{
	{
		name:   "fixed",
		mode:   ModeFixed,
		record: Record{Chromosome: 1, Position: 12345, ID: "42", Ref: "A", Alt: "G", Heterozygous: true},
	},
	{
		name:   "variable_short_id",
		mode:   ModeVariable,
		record: Record{Chromosome: 2, Position: 999, ID: "rs908", Ref: "C", Alt: "T"},
	},
	{
		name:   "variable_long_id",
		mode:   ModeVariable,
		record: Record{Chromosome: 2, Position: 999, ID: strings.Repeat("x", 256), Ref: "C", Alt: "T"},
	},
}

func BenchmarkRecordCodec_Encode(b *testing.B) {
	for _, bm := range benchRecords {
		c := NewRecordCodec(bm.mode)
		r := bm.record
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Encode(&r); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecordCodec_Append(b *testing.B) {
	for _, bm := range benchRecords {
		c := NewRecordCodec(bm.mode)
		r := bm.record
		buf := make([]byte, 0, 4096)
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				var err error
				if buf, err = c.Append(buf[:0], &r); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecordCodec_Decode(b *testing.B) {
	for _, bm := range benchRecords {
		c := NewRecordCodec(bm.mode)
		encoded, err := c.Encode(&bm.record)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Decode(encoded); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
