// Package vcf turns tab-separated variant call lines into codec records.
package vcf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/CEA-LIST/sgntx/pkg/codec"
)

const (
	// HeterozygousLabel is the only zygosity value that sets the flag.
	HeterozygousLabel = "heterozygous"
	// HomozygousLabel is written back by Format for unflagged records.
	HomozygousLabel = "homozygous"

	// CommentPrefix marks header and comment lines.
	CommentPrefix = "#"
	// MissingID is the VCF placeholder for an absent identifier.
	MissingID = "."

	// MinFields is CHROM, POS, ID, REF and ALT.
	MinFields = 5

	// idPrefixLen is the width of the "rs"/"ID" prefix stripped in fixed mode.
	idPrefixLen = 2
)

// Parse errors
var (
	ErrMalformedLine           = errors.New("malformed line")
	ErrInvalidIdentifierFormat = errors.New("invalid identifier format")
	ErrInvalidNumber           = errors.New("invalid number")
)

// ParseError names the field that could not be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser builds records from lines for one identifier mode.
type Parser struct {
	mode codec.Mode
}

// NewParser creates a parser for the given identifier mode.
func NewParser(mode codec.Mode) *Parser {
	return &Parser{mode: mode}
}

// Skip reports whether a trimmed line carries no record: blank lines and
// comment/header lines.
func Skip(line string) bool {
	return line == "" || strings.HasPrefix(line, CommentPrefix)
}

// ParseLine splits one trimmed, non-comment line into a record. Alleles are
// kept verbatim; truncation to one character happens in the codec.
func (p *Parser) ParseLine(line string) (*codec.Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < MinFields {
		return nil, &ParseError{Err: errors.Wrapf(ErrMalformedLine, "%d tab-separated fields, need at least %d", len(fields), MinFields)}
	}

	chrom, err := ParseUint(fields[0])
	if err != nil {
		return nil, &ParseError{Field: "chromosome", Value: fields[0], Err: err}
	}
	pos, err := ParseUint(fields[1])
	if err != nil {
		return nil, &ParseError{Field: "position", Value: fields[1], Err: err}
	}
	id, err := p.ParseIdentifier(fields[2])
	if err != nil {
		return nil, &ParseError{Field: "id", Value: fields[2], Err: err}
	}

	return &codec.Record{
		Chromosome:   chrom,
		Position:     pos,
		ID:           id,
		Ref:          fields[3],
		Alt:          fields[4],
		Heterozygous: IsHeterozygous(fields[len(fields)-1]),
	}, nil
}

// ParseIdentifier returns the identifier the codec expects for the parser's
// mode. In fixed mode the two-character prefix is stripped and the rest must
// be a decimal integer, returned in canonical form; "." maps to "0". In
// variable mode the field is returned unchanged.
func (p *Parser) ParseIdentifier(field string) (string, error) {
	if p.mode == codec.ModeVariable {
		return field, nil
	}
	if field == MissingID {
		return "0", nil
	}
	if len(field) <= idPrefixLen {
		return "", errors.Wrapf(ErrInvalidIdentifierFormat, "expected a %d-character prefix followed by digits", idPrefixLen)
	}
	id, err := ParseUint(field[idPrefixLen:])
	if err != nil {
		if errors.Is(err, codec.ErrFieldOverflow) {
			return "", err
		}
		return "", errors.Wrap(ErrInvalidIdentifierFormat, "suffix is not numeric")
	}
	return strconv.FormatUint(id, 10), nil
}

// ParseUint parses a decimal field made only of ASCII digits. Values that do
// not fit in 64 bits report codec.ErrFieldOverflow.
func ParseUint(s string) (uint64, error) {
	if s == "" {
		return 0, errors.Wrap(ErrInvalidNumber, "empty")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errors.Wrapf(ErrInvalidNumber, "unexpected %q", s[i])
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(codec.ErrFieldOverflow, "%s does not fit in 8 bytes", s)
	}
	return v, nil
}

// IsHeterozygous is an exact, case-sensitive match against HeterozygousLabel.
// Any other label, including misspellings, is not heterozygous.
func IsHeterozygous(label string) bool {
	return label == HeterozygousLabel
}

// Format renders a decoded record as a tab-separated line:
// CHROM POS ID REF ALT ZYGOSITY. In fixed mode id 0 prints as "." and other
// ids get an "rs" prefix.
func Format(r *codec.Record, mode codec.Mode) string {
	id := r.ID
	if mode == codec.ModeFixed {
		if id == "0" {
			id = MissingID
		} else {
			id = "rs" + id
		}
	}
	zygosity := HomozygousLabel
	if r.Heterozygous {
		zygosity = HeterozygousLabel
	}
	return strings.Join([]string{
		strconv.FormatUint(r.Chromosome, 10),
		strconv.FormatUint(r.Position, 10),
		id,
		r.Ref,
		r.Alt,
		zygosity,
	}, "\t")
}
