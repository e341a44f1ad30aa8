package capture

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/danmuck/tftpwire/internal/protocol"
	"github.com/danmuck/tftpwire/internal/testutil/pcaptest"
	"github.com/danmuck/tftpwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	clientIP = "10.0.0.2"
	serverIP = "10.0.0.1"
)

func encode(t *testing.T, p protocol.Packet, err error) []byte {
	t.Helper()
	require.NoError(t, err)
	return protocol.Encode(p)
}

func transferCapture(t *testing.T) []byte {
	t.Helper()
	rrq, err := protocol.NewReadRequest("boot.cfg", "octet")
	data, derr := protocol.NewData(1, []byte("hello"))
	ack, aerr := protocol.NewAck(1)
	return pcaptest.Capture(t,
		pcaptest.Datagram{SrcIP: clientIP, DstIP: serverIP, SrcPort: 50000, DstPort: 69, Payload: encode(t, rrq, err)},
		pcaptest.Datagram{SrcIP: serverIP, DstIP: clientIP, SrcPort: 40000, DstPort: 50000, Payload: encode(t, data, derr)},
		pcaptest.Datagram{SrcIP: clientIP, DstIP: serverIP, SrcPort: 50000, DstPort: 40000, Payload: encode(t, ack, aerr)},
		pcaptest.Datagram{SrcIP: "10.0.0.9", DstIP: serverIP, SrcPort: 9999, DstPort: 9999, Payload: []byte{0x00, 0x04, 0x00, 0x01}},
		pcaptest.Datagram{SrcIP: "10.0.0.7", DstIP: serverIP, SrcPort: 41000, DstPort: 69, Payload: []byte{0x00, 0x04, 0x00, 0x01, 0xFF}},
		pcaptest.Datagram{SrcIP: clientIP, DstIP: serverIP, SrcPort: 50001, DstPort: 69, Payload: []byte("x"), TCP: true},
	)
}

func TestScanFollowsTransferOffServerPort(t *testing.T) {
	logger := testlog.Start(t)

	ports := map[uint16]struct{}{69: {}}
	scanner := NewScanner(mustDecoder(t), ports, logger)

	var records []Record
	sum, err := scanner.Scan(context.Background(), bytes.NewReader(transferCapture(t)), func(r Record) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Frames)
	assert.Equal(t, 4, sum.Datagrams)
	assert.Equal(t, map[protocol.Opcode]int{protocol.OpRRQ: 1, protocol.OpData: 1, protocol.OpAck: 1}, sum.Packets)
	assert.Equal(t, map[string]int{"trailing_bytes": 1}, sum.Errors)

	require.Len(t, records, 4)
	assert.Equal(t, "10.0.0.2:50000", records[0].Src)
	assert.Equal(t, "10.0.0.1:69", records[0].Dst)

	data, ok := records[1].Packet.(protocol.Data)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data.Payload())
	assert.True(t, data.Final())

	assert.Equal(t, 5, records[3].Frame)
	assert.Nil(t, records[3].Packet)
	assert.ErrorIs(t, records[3].Err, protocol.ErrTrailingBytes)
}

func TestScanStopsOnCallbackError(t *testing.T) {
	scanner := NewScanner(mustDecoder(t), map[uint16]struct{}{69: {}}, testlog.Start(t))
	stop := errors.New("stop")

	calls := 0
	sum, err := scanner.Scan(context.Background(), bytes.NewReader(transferCapture(t)), func(Record) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, sum.Datagrams)
}

func TestScanHonoursCancellation(t *testing.T) {
	scanner := NewScanner(mustDecoder(t), map[uint16]struct{}{69: {}}, testlog.Start(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := scanner.Scan(ctx, bytes.NewReader(transferCapture(t)), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Frames)
}

func TestScanRejectsNonPcapInput(t *testing.T) {
	scanner := NewScanner(mustDecoder(t), map[uint16]struct{}{69: {}}, testlog.Start(t))
	_, err := scanner.Scan(context.Background(), bytes.NewReader([]byte("not a capture")), nil)
	assert.Error(t, err)
}

func mustDecoder(t *testing.T) *protocol.Decoder {
	t.Helper()
	dec, err := protocol.NewDecoder(protocol.DefaultLimits())
	require.NoError(t, err)
	return dec
}
