package protocol

import (
	"errors"
	"fmt"
)

// ErrInvalidPacket is wrapped by every ConstructionError.
var ErrInvalidPacket = errors.New("protocol: invalid packet")

// Decode error kinds. A DecodeError always wraps exactly one of these.
var (
	ErrUnknownOpcode     = errors.New("protocol: unknown opcode")
	ErrTruncatedPacket   = errors.New("protocol: truncated packet")
	ErrMissingTerminator = errors.New("protocol: missing null terminator")
	ErrTrailingBytes     = errors.New("protocol: trailing bytes")
	ErrInvalidMode       = errors.New("protocol: invalid transfer mode")
	ErrInvalidErrorCode  = errors.New("protocol: invalid error code")
	ErrOversizedPayload  = errors.New("protocol: payload exceeds block size")
	ErrDuplicateOption   = errors.New("protocol: duplicate option")
	ErrInvalidField      = errors.New("protocol: invalid field")
	ErrUnexpectedOpcode  = errors.New("protocol: unexpected opcode")
)

var decodeKinds = []struct {
	err  error
	name string
}{
	{ErrUnknownOpcode, "unknown_opcode"},
	{ErrTruncatedPacket, "truncated_packet"},
	{ErrMissingTerminator, "missing_terminator"},
	{ErrTrailingBytes, "trailing_bytes"},
	{ErrInvalidMode, "invalid_mode"},
	{ErrInvalidErrorCode, "invalid_error_code"},
	{ErrOversizedPayload, "oversized_payload"},
	{ErrDuplicateOption, "duplicate_option"},
	{ErrInvalidField, "invalid_field"},
	{ErrUnexpectedOpcode, "unexpected_opcode"},
}

// ErrorKind returns a stable snake_case label for err's decode kind,
// or "other" when err is not a decode failure.
func ErrorKind(err error) string {
	for _, k := range decodeKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "other"
}

// ConstructionError names the field that broke a packet invariant.
type ConstructionError struct {
	Packet Opcode
	Field  string
	Reason string
	Err    error
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("protocol: invalid %s packet: %s: %s", e.Packet, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstructionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidPacket}
	}
	return []error{ErrInvalidPacket, e.Err}
}

// DecodeError reports why a datagram could not be decoded.
// Offset is the byte position in the datagram where the problem was found.
type DecodeError struct {
	Opcode Opcode
	Offset int
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v (%s at offset %d)", e.Err, e.Opcode, e.Offset)
	}
	return fmt.Sprintf("%v (%s %s at offset %d)", e.Err, e.Opcode, e.Field, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(op Opcode, offset int, field string, kind error) *DecodeError {
	return &DecodeError{Opcode: op, Offset: offset, Field: field, Err: kind}
}

func invalid(op Opcode, field, reason string) *ConstructionError {
	return &ConstructionError{Packet: op, Field: field, Reason: reason}
}
