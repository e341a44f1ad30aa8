package protocol

import (
	"encoding/binary"
	"io"
)

// EncodedLen is the exact wire size of p.
func EncodedLen(p Packet) int {
	return p.EncodedLen()
}

// Append writes p to dst in network byte order and returns the extended slice.
func Append(dst []byte, p Packet) []byte {
	return p.appendTo(dst)
}

// Encode returns the wire form of p in a buffer sized by EncodedLen.
func Encode(p Packet) []byte {
	return p.appendTo(make([]byte, 0, p.EncodedLen()))
}

// Write encodes p and writes it to w in a single call, so datagram
// writers see one packet per Write.
func Write(w io.Writer, p Packet) (int, error) {
	return w.Write(Encode(p))
}

func (r Request) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(r.op))
	dst = appendString(dst, r.filename)
	dst = appendString(dst, r.mode)
	return r.options.AppendTo(dst)
}

func (d Data) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(OpData))
	dst = binary.BigEndian.AppendUint16(dst, d.block)
	return append(dst, d.payload...)
}

func (a Ack) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(OpAck))
	return binary.BigEndian.AppendUint16(dst, a.block)
}

func (e Error) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(OpError))
	dst = binary.BigEndian.AppendUint16(dst, uint16(e.code))
	return appendString(dst, e.message)
}

func (o OAck) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(OpOAck))
	return o.options.AppendTo(dst)
}

func appendString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, 0)
}
