package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/tftpwire/internal/protocol/option"
)

// Limits constrains what the decoder accepts.
type Limits struct {
	// MaxBlockSize bounds a DATA payload. Raise it only for transfers that
	// negotiated a larger blksize.
	MaxBlockSize int
}

func DefaultLimits() Limits {
	return Limits{MaxBlockSize: DefaultBlockSize}
}

func (l Limits) Validate() error {
	if l.MaxBlockSize < MinBlockSize || l.MaxBlockSize > MaxBlockSize {
		return fmt.Errorf("protocol: max block size %d outside [%d, %d]", l.MaxBlockSize, MinBlockSize, MaxBlockSize)
	}
	return nil
}

// Decoder turns datagrams into packets. It holds no mutable state and is
// safe for concurrent use.
type Decoder struct {
	limits Limits
}

var defaultDecoder = &Decoder{limits: DefaultLimits()}

func NewDecoder(limits Limits) (*Decoder, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{limits: limits}, nil
}

func (d *Decoder) Limits() Limits {
	return d.limits
}

// Decode parses one datagram using DefaultLimits.
func Decode(b []byte) (Packet, error) {
	return defaultDecoder.Decode(b)
}

// Decode parses one datagram. On failure it returns a *DecodeError and a nil
// packet.
func (d *Decoder) Decode(b []byte) (Packet, error) {
	if len(b) < OpcodeLen {
		return nil, decodeErr(0, len(b), "opcode", ErrTruncatedPacket)
	}
	op := Opcode(binary.BigEndian.Uint16(b[0:2]))

	var (
		p   Packet
		err error
	)
	switch op {
	case OpRRQ, OpWRQ:
		p, err = decodeRequest(op, b)
	case OpData:
		p, err = d.decodeData(b)
	case OpAck:
		p, err = decodeAck(b)
	case OpError:
		p, err = decodeError(b)
	case OpOAck:
		p, err = decodeOAck(b)
	default:
		return nil, decodeErr(op, 0, "opcode", ErrUnknownOpcode)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodeRequest(op Opcode, b []byte) (Request, error) {
	offset := OpcodeLen
	filename, rest, ok := option.Cut(b[offset:])
	if !ok {
		return Request{}, decodeErr(op, len(b), "filename", ErrMissingTerminator)
	}
	if filename == "" || !option.ValidString(filename) {
		return Request{}, decodeErr(op, offset, "filename", ErrInvalidField)
	}
	offset += len(filename) + 1

	mode, rest, ok := option.Cut(rest)
	if !ok {
		return Request{}, decodeErr(op, len(b), "mode", ErrMissingTerminator)
	}
	if _, known := ParseMode(mode); !known {
		return Request{}, decodeErr(op, offset, "mode", ErrInvalidMode)
	}
	offset += len(mode) + 1

	list, err := decodeOptions(op, offset, rest)
	if err != nil {
		return Request{}, err
	}
	req, err := NewRequestList(op, filename, mode, list)
	if err != nil {
		return Request{}, consistencyErr(op, err)
	}
	return req, nil
}

func (d *Decoder) decodeData(b []byte) (Data, error) {
	if len(b) < HeaderLen {
		return Data{}, decodeErr(OpData, len(b), "block", ErrTruncatedPacket)
	}
	block := binary.BigEndian.Uint16(b[2:4])
	if block == 0 {
		return Data{}, decodeErr(OpData, 2, "block", ErrInvalidField)
	}
	payload := b[HeaderLen:]
	if len(payload) > d.limits.MaxBlockSize {
		return Data{}, decodeErr(OpData, HeaderLen+d.limits.MaxBlockSize, "payload", ErrOversizedPayload)
	}
	data, err := NewDataSized(block, payload, d.limits.MaxBlockSize)
	if err != nil {
		return Data{}, consistencyErr(OpData, err)
	}
	return data, nil
}

func decodeAck(b []byte) (Ack, error) {
	if len(b) < HeaderLen {
		return Ack{}, decodeErr(OpAck, len(b), "block", ErrTruncatedPacket)
	}
	if len(b) > HeaderLen {
		return Ack{}, decodeErr(OpAck, HeaderLen, "", ErrTrailingBytes)
	}
	return NewAck(binary.BigEndian.Uint16(b[2:4]))
}

func decodeError(b []byte) (Error, error) {
	if len(b) < HeaderLen {
		return Error{}, decodeErr(OpError, len(b), "code", ErrTruncatedPacket)
	}
	code := ErrorCode(binary.BigEndian.Uint16(b[2:4]))
	if !code.Valid() {
		return Error{}, decodeErr(OpError, 2, "code", ErrInvalidErrorCode)
	}
	message, rest, ok := option.Cut(b[HeaderLen:])
	if !ok {
		return Error{}, decodeErr(OpError, len(b), "message", ErrMissingTerminator)
	}
	if !option.ValidString(message) {
		return Error{}, decodeErr(OpError, HeaderLen, "message", ErrInvalidField)
	}
	if len(rest) > 0 {
		return Error{}, decodeErr(OpError, len(b)-len(rest), "", ErrTrailingBytes)
	}
	e, err := NewError(code, message)
	if err != nil {
		return Error{}, consistencyErr(OpError, err)
	}
	return e, nil
}

func decodeOAck(b []byte) (OAck, error) {
	list, err := decodeOptions(OpOAck, OpcodeLen, b[OpcodeLen:])
	if err != nil {
		return OAck{}, err
	}
	return NewOAckList(list), nil
}

// decodeOptions parses an option block that starts at offset in the datagram.
func decodeOptions(op Opcode, offset int, b []byte) (option.List, error) {
	pairs, err := option.ParsePairs(b)
	if err != nil {
		field := "options"
		at := offset
		var pe *option.PairError
		if errors.As(err, &pe) {
			at += pe.Offset
			if pe.Name != "" {
				field = "option " + pe.Name
			}
		}
		kind := ErrInvalidField
		switch {
		case errors.Is(err, option.ErrMissingTerminator):
			kind = ErrMissingTerminator
		case errors.Is(err, option.ErrDuplicateName):
			kind = ErrDuplicateOption
		}
		return option.List{}, decodeErr(op, at, field, kind)
	}
	list, err := option.NewList(pairs...)
	if err != nil {
		return option.List{}, consistencyErr(op, err)
	}
	return list, nil
}

// consistencyErr wraps a constructor rejecting bytes the decoder already
// checked. Reaching it means the two disagree.
func consistencyErr(op Opcode, err error) *DecodeError {
	return &DecodeError{
		Opcode: op,
		Field:  "packet",
		Err:    fmt.Errorf("%w: decoder accepted a value the constructor rejects: %v", ErrInvalidField, err),
	}
}

// DecodeRequest decodes b and requires an RRQ or WRQ.
func DecodeRequest(b []byte) (Request, error) {
	return decodeAs[Request](defaultDecoder, b)
}

// DecodeData decodes b and requires a DATA packet of at most 512 bytes.
func DecodeData(b []byte) (Data, error) {
	return decodeAs[Data](defaultDecoder, b)
}

// DecodeData decodes b and requires a DATA packet within d's limits.
func (d *Decoder) DecodeData(b []byte) (Data, error) {
	return decodeAs[Data](d, b)
}

func DecodeAck(b []byte) (Ack, error) {
	return decodeAs[Ack](defaultDecoder, b)
}

func DecodeErrorPacket(b []byte) (Error, error) {
	return decodeAs[Error](defaultDecoder, b)
}

func DecodeOAck(b []byte) (OAck, error) {
	return decodeAs[OAck](defaultDecoder, b)
}

func decodeAs[T Packet](d *Decoder, b []byte) (T, error) {
	var zero T
	p, err := d.Decode(b)
	if err != nil {
		return zero, err
	}
	v, ok := p.(T)
	if !ok {
		return zero, decodeErr(p.Opcode(), 0, "opcode", ErrUnexpectedOpcode)
	}
	return v, nil
}
