package option

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Well-known option names from RFC 2348 and RFC 2349.
const (
	BlockSize    = "blksize"
	Timeout      = "timeout"
	TransferSize = "tsize"
)

var (
	ErrMissingTerminator = errors.New("option: missing null terminator")
	ErrDuplicateName     = errors.New("option: duplicate option name")
	ErrEmptyName         = errors.New("option: empty option name")
	ErrInvalidString     = errors.New("option: string contains NUL or non-ASCII byte")
)

// Pair is one name/value option as it appears on the wire.
type Pair struct {
	Name  string
	Value string
}

func (p Pair) String() string {
	return p.Name + "=" + p.Value
}

// PairError reports where in an option block parsing stopped.
type PairError struct {
	Offset int
	Name   string
	Err    error
}

func (e *PairError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d (%q)", e.Err, e.Offset, e.Name)
}

func (e *PairError) Unwrap() error {
	return e.Err
}

// Cut splits b at the first NUL byte. ok is false when b holds no terminator.
func Cut(b []byte) (s string, rest []byte, ok bool) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", b, false
	}
	return string(b[:i]), b[i+1:], true
}

// ValidString reports whether s can travel as a NUL-terminated ASCII field.
func ValidString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 || s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// ParsePairs consumes b two NUL-terminated strings at a time.
// An empty block yields no pairs and no error.
func ParsePairs(b []byte) ([]Pair, error) {
	if len(b) == 0 {
		return nil, nil
	}
	pairs := make([]Pair, 0, 4)
	offset := 0
	for offset < len(b) {
		name, rest, ok := Cut(b[offset:])
		if !ok {
			return nil, &PairError{Offset: len(b), Err: ErrMissingTerminator}
		}
		value, _, ok := Cut(rest)
		if !ok {
			return nil, &PairError{Offset: len(b), Name: name, Err: ErrMissingTerminator}
		}
		p := Pair{Name: name, Value: value}
		if err := validatePair(p); err != nil {
			return nil, &PairError{Offset: offset, Name: name, Err: err}
		}
		if indexOf(pairs, name) >= 0 {
			return nil, &PairError{Offset: offset, Name: name, Err: ErrDuplicateName}
		}
		pairs = append(pairs, p)
		offset += len(name) + len(value) + 2
	}
	return pairs, nil
}

// AppendPairs writes each pair as name NUL value NUL in slice order.
func AppendPairs(dst []byte, pairs []Pair) []byte {
	for _, p := range pairs {
		dst = append(dst, p.Name...)
		dst = append(dst, 0)
		dst = append(dst, p.Value...)
		dst = append(dst, 0)
	}
	return dst
}

// PairsLen is the number of bytes AppendPairs writes for pairs.
func PairsLen(pairs []Pair) int {
	n := 0
	for _, p := range pairs {
		n += len(p.Name) + len(p.Value) + 2
	}
	return n
}

func validatePair(p Pair) error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if !ValidString(p.Name) || !ValidString(p.Value) {
		return ErrInvalidString
	}
	return nil
}

// Option names are case-insensitive (RFC 2347).
func indexOf(pairs []Pair, name string) int {
	for i, p := range pairs {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}
