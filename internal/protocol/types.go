package protocol

import (
	"strconv"
	"strings"
)

const (
	OpcodeLen = 2
	HeaderLen = 4

	// DefaultBlockSize is the RFC 1350 data block size.
	DefaultBlockSize = 512
	// MinBlockSize and MaxBlockSize bound a negotiated blksize (RFC 2348).
	MinBlockSize = 8
	MaxBlockSize = 65464
)

// Opcode is the two byte packet discriminant.
type Opcode uint16

const (
	OpRRQ   Opcode = 1
	OpWRQ   Opcode = 2
	OpData  Opcode = 3
	OpAck   Opcode = 4
	OpError Opcode = 5
	OpOAck  Opcode = 6
)

func (o Opcode) Valid() bool {
	return o >= OpRRQ && o <= OpOAck
}

func (o Opcode) String() string {
	switch o {
	case OpRRQ:
		return "RRQ"
	case OpWRQ:
		return "WRQ"
	case OpData:
		return "DATA"
	case OpAck:
		return "ACK"
	case OpError:
		return "ERROR"
	case OpOAck:
		return "OACK"
	default:
		return "OPCODE(" + strconv.Itoa(int(o)) + ")"
	}
}

// ErrorCode is the code carried by an ERROR packet.
type ErrorCode uint16

const (
	CodeNotDefined ErrorCode = iota
	CodeFileNotFound
	CodeAccessViolation
	CodeDiskFull
	CodeIllegalOperation
	CodeUnknownTransferID
	CodeFileAlreadyExists
	CodeNoSuchUser
	// CodeWrongBlockSize is also used to refuse option negotiation (RFC 2347).
	CodeWrongBlockSize
)

var errorCodeNames = [...]string{
	"NotDefined",
	"FileNotFound",
	"AccessViolation",
	"DiskFull",
	"IllegalOperation",
	"UnknownTransferID",
	"FileAlreadyExists",
	"NoSuchUser",
	"WrongBlocksize",
}

var errorCodeMessages = [...]string{
	"Not defined",
	"File not found",
	"Access violation",
	"Disk full or allocation exceeded",
	"Illegal TFTP operation",
	"Unknown transfer ID",
	"File already exists",
	"No such user",
	"Option negotiation failed",
}

func (c ErrorCode) Valid() bool {
	return c <= CodeWrongBlockSize
}

func (c ErrorCode) String() string {
	if !c.Valid() {
		return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
	}
	return errorCodeNames[c]
}

// Message is the conventional human readable text for c.
func (c ErrorCode) Message() string {
	if !c.Valid() {
		return ""
	}
	return errorCodeMessages[c]
}

// TransferMode is the file encoding named by a request.
type TransferMode int

const (
	ModeNetASCII TransferMode = iota + 1
	ModeOctet
)

// ParseMode matches the known mode names case-insensitively.
// The obsolete "mail" mode is rejected.
func ParseMode(s string) (TransferMode, bool) {
	switch strings.ToLower(s) {
	case "netascii":
		return ModeNetASCII, true
	case "octet":
		return ModeOctet, true
	default:
		return 0, false
	}
}

func (m TransferMode) String() string {
	switch m {
	case ModeNetASCII:
		return "netascii"
	case ModeOctet:
		return "octet"
	default:
		return "unknown"
	}
}
