package protocol

import (
	"bytes"
	"fmt"

	"github.com/danmuck/tftpwire/internal/protocol/option"
)

// Packet is one of Request, Data, Ack, Error or OAck.
// Values are immutable once constructed.
type Packet interface {
	Opcode() Opcode
	// EncodedLen is the exact number of bytes the encoder writes.
	EncodedLen() int
	String() string

	appendTo(dst []byte) []byte
}

var (
	_ Packet = Request{}
	_ Packet = Data{}
	_ Packet = Ack{}
	_ Packet = Error{}
	_ Packet = OAck{}
)

// Request is a read (RRQ) or write (WRQ) request.
type Request struct {
	op       Opcode
	filename string
	mode     string
	options  option.List
}

// NewRequest builds an RRQ or WRQ. opts keep their order on the wire.
func NewRequest(op Opcode, filename, mode string, opts ...option.Pair) (Request, error) {
	list, err := option.NewList(opts...)
	if err != nil {
		return Request{}, &ConstructionError{Packet: op, Field: "options", Reason: "rejected", Err: err}
	}
	return NewRequestList(op, filename, mode, list)
}

func NewReadRequest(filename, mode string, opts ...option.Pair) (Request, error) {
	return NewRequest(OpRRQ, filename, mode, opts...)
}

func NewWriteRequest(filename, mode string, opts ...option.Pair) (Request, error) {
	return NewRequest(OpWRQ, filename, mode, opts...)
}

// NewRequestList builds a request around an already validated option list.
func NewRequestList(op Opcode, filename, mode string, options option.List) (Request, error) {
	if op != OpRRQ && op != OpWRQ {
		return Request{}, invalid(op, "opcode", "must be RRQ or WRQ")
	}
	if filename == "" {
		return Request{}, invalid(op, "filename", "must not be empty")
	}
	if !option.ValidString(filename) {
		return Request{}, invalid(op, "filename", "must be ASCII without NUL")
	}
	if _, ok := ParseMode(mode); !ok {
		return Request{}, invalid(op, "mode", fmt.Sprintf("unknown transfer mode %q", mode))
	}
	return Request{op: op, filename: filename, mode: mode, options: options}, nil
}

func (r Request) Opcode() Opcode { return r.op }
func (r Request) Filename() string { return r.filename }
func (r Request) Mode() string { return r.mode }
func (r Request) Options() option.List { return r.options }

// TransferMode is the parsed form of Mode.
func (r Request) TransferMode() TransferMode {
	m, _ := ParseMode(r.mode)
	return m
}

func (r Request) EncodedLen() int {
	return OpcodeLen + len(r.filename) + 1 + len(r.mode) + 1 + r.options.EncodedLen()
}

// Equal compares options as a mapping.
func (r Request) Equal(o Request) bool {
	return r.op == o.op &&
		r.filename == o.filename &&
		r.mode == o.mode &&
		r.options.Equal(o.options)
}

func (r Request) String() string {
	s := fmt.Sprintf("%s filename=%q mode=%s", r.op, r.filename, r.mode)
	if r.options.Len() > 0 {
		s += " options=" + r.options.String()
	}
	return s
}

// Data carries one block of file content.
type Data struct {
	block     uint16
	payload   []byte
	blockSize int
}

// NewData builds a DATA packet for a transfer using the default 512 byte block.
func NewData(block uint16, payload []byte) (Data, error) {
	return NewDataSized(block, payload, DefaultBlockSize)
}

// NewDataSized builds a DATA packet for a transfer that negotiated blockSize.
func NewDataSized(block uint16, payload []byte, blockSize int) (Data, error) {
	if blockSize < MinBlockSize || blockSize > MaxBlockSize {
		return Data{}, invalid(OpData, "block size", fmt.Sprintf("%d outside [%d, %d]", blockSize, MinBlockSize, MaxBlockSize))
	}
	if block == 0 {
		return Data{}, invalid(OpData, "block", "must be >= 1")
	}
	if len(payload) > blockSize {
		return Data{}, invalid(OpData, "payload", fmt.Sprintf("%d bytes exceeds block size %d", len(payload), blockSize))
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return Data{block: block, payload: buf, blockSize: blockSize}, nil
}

func (d Data) Opcode() Opcode { return OpData }
func (d Data) Block() uint16 { return d.block }
func (d Data) Len() int { return len(d.payload) }

// Payload returns a copy of the block content.
func (d Data) Payload() []byte {
	buf := make([]byte, len(d.payload))
	copy(buf, d.payload)
	return buf
}

// Final reports whether this block ends the transfer.
func (d Data) Final() bool {
	return len(d.payload) < d.blockSize
}

func (d Data) EncodedLen() int {
	return HeaderLen + len(d.payload)
}

// Equal ignores the block size the value was built with.
func (d Data) Equal(o Data) bool {
	return d.block == o.block && bytes.Equal(d.payload, o.payload)
}

func (d Data) String() string {
	return fmt.Sprintf("%s block=%d len=%d", OpData, d.block, len(d.payload))
}

// Ack acknowledges a DATA block, or an OACK when Block is 0.
type Ack struct {
	block uint16
}

// NewAck accepts every block number. Block 0 confirms an OACK (RFC 2347).
func NewAck(block uint16) (Ack, error) {
	return Ack{block: block}, nil
}

func (a Ack) Opcode() Opcode { return OpAck }
func (a Ack) Block() uint16 { return a.block }
func (a Ack) EncodedLen() int { return HeaderLen }
func (a Ack) Equal(o Ack) bool { return a == o }

func (a Ack) String() string {
	return fmt.Sprintf("%s block=%d", OpAck, a.block)
}

// Error aborts a transfer.
type Error struct {
	code    ErrorCode
	message string
}

func NewError(code ErrorCode, message string) (Error, error) {
	if !code.Valid() {
		return Error{}, invalid(OpError, "code", fmt.Sprintf("%d outside [0, %d]", uint16(code), uint16(CodeWrongBlockSize)))
	}
	if !option.ValidString(message) {
		return Error{}, invalid(OpError, "message", "must be ASCII without NUL")
	}
	return Error{code: code, message: message}, nil
}

// NewErrorCode uses the conventional message for code.
func NewErrorCode(code ErrorCode) (Error, error) {
	return NewError(code, code.Message())
}

func (e Error) Opcode() Opcode { return OpError }
func (e Error) Code() ErrorCode { return e.code }
func (e Error) Message() string { return e.message }
func (e Error) Equal(o Error) bool { return e == o }

func (e Error) EncodedLen() int {
	return HeaderLen + len(e.message) + 1
}

func (e Error) String() string {
	return fmt.Sprintf("%s code=%s message=%q", OpError, e.code, e.message)
}

// OAck confirms the options a server accepted.
type OAck struct {
	options option.List
}

func NewOAck(opts ...option.Pair) (OAck, error) {
	list, err := option.NewList(opts...)
	if err != nil {
		return OAck{}, &ConstructionError{Packet: OpOAck, Field: "options", Reason: "rejected", Err: err}
	}
	return OAck{options: list}, nil
}

// NewOAckList wraps a list that option.NewList already validated.
func NewOAckList(options option.List) OAck {
	return OAck{options: options}
}

func (o OAck) Opcode() Opcode { return OpOAck }
func (o OAck) Options() option.List { return o.options }

func (o OAck) EncodedLen() int {
	return OpcodeLen + o.options.EncodedLen()
}

// Equal compares options as a mapping.
func (o OAck) Equal(other OAck) bool {
	return o.options.Equal(other.options)
}

func (o OAck) String() string {
	return fmt.Sprintf("%s options=%s", OpOAck, o.options)
}

// Equal reports whether a and b are the same packet. Option collections are
// compared without regard to order.
func Equal(a, b Packet) bool {
	switch x := a.(type) {
	case Request:
		y, ok := b.(Request)
		return ok && x.Equal(y)
	case Data:
		y, ok := b.(Data)
		return ok && x.Equal(y)
	case Ack:
		y, ok := b.(Ack)
		return ok && x.Equal(y)
	case Error:
		y, ok := b.(Error)
		return ok && x.Equal(y)
	case OAck:
		y, ok := b.(OAck)
		return ok && x.Equal(y)
	default:
		return a == nil && b == nil
	}
}
