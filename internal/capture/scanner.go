package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/danmuck/tftpwire/internal/observability"
	"github.com/danmuck/tftpwire/internal/protocol"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rs/zerolog"
)

// Record is one UDP datagram the scanner treated as TFTP.
// Exactly one of Packet and Err is set.
type Record struct {
	Frame     int
	Timestamp time.Time
	Src       string
	Dst       string
	Packet    protocol.Packet
	Err       error
}

// Summary counts what a scan saw.
type Summary struct {
	Frames    int
	Datagrams int
	Packets   map[protocol.Opcode]int
	Errors    map[string]int
}

// Scanner picks TFTP datagrams out of a pcap stream and decodes them.
//
// A datagram counts as TFTP when either port is a configured server port, or
// when one endpoint is a client that sent a request to such a port. Servers
// answer from an ephemeral port, so the second rule follows the transfer.
type Scanner struct {
	decoder *protocol.Decoder
	ports   map[uint16]struct{}
	logger  zerolog.Logger
}

func NewScanner(decoder *protocol.Decoder, ports map[uint16]struct{}, logger zerolog.Logger) *Scanner {
	return &Scanner{decoder: decoder, ports: ports, logger: logger}
}

// Scan reads r until EOF, calling fn for every TFTP datagram. A non-nil
// error from fn stops the scan and is returned.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, fn func(Record) error) (Summary, error) {
	sum := Summary{
		Packets: make(map[protocol.Opcode]int),
		Errors:  make(map[string]int),
	}
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return sum, fmt.Errorf("capture: open pcap: %w", err)
	}
	clients := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("capture: read frame %d: %w", sum.Frames+1, err)
		}
		sum.Frames++

		pkt := gopacket.NewPacket(data, reader.LinkType(), gopacket.NoCopy)
		udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || pkt.NetworkLayer() == nil {
			continue
		}
		flow := pkt.NetworkLayer().NetworkFlow()
		src := endpoint(flow.Src().String(), uint16(udp.SrcPort))
		dst := endpoint(flow.Dst().String(), uint16(udp.DstPort))
		if !s.isTFTP(udp, src, dst, clients) {
			continue
		}
		sum.Datagrams++

		rec := Record{Frame: sum.Frames, Timestamp: ci.Timestamp, Src: src, Dst: dst}
		p, err := s.decoder.Decode(udp.Payload)
		if err != nil {
			kind := protocol.ErrorKind(err)
			rec.Err = err
			sum.Errors[kind]++
			observability.RecordDecodeError(kind)
			s.logger.Warn().
				Int("frame", rec.Frame).
				Str("src", src).
				Str("dst", dst).
				Str("kind", kind).
				Err(err).
				Msg("decode_failed")
		} else {
			rec.Packet = p
			sum.Packets[p.Opcode()]++
			observability.RecordPacket(p.Opcode().String())
			if _, isReq := p.(protocol.Request); isReq {
				if _, toServer := s.ports[uint16(udp.DstPort)]; toServer {
					clients[src] = struct{}{}
				}
			}
			s.logger.Debug().
				Int("frame", rec.Frame).
				Str("src", src).
				Str("dst", dst).
				Stringer("packet", p).
				Msg("decoded")
		}

		if fn != nil {
			if err := fn(rec); err != nil {
				return sum, err
			}
		}
	}
}

func (s *Scanner) isTFTP(udp *layers.UDP, src, dst string, clients map[string]struct{}) bool {
	if _, ok := s.ports[uint16(udp.SrcPort)]; ok {
		return true
	}
	if _, ok := s.ports[uint16(udp.DstPort)]; ok {
		return true
	}
	if _, ok := clients[src]; ok {
		return true
	}
	_, ok := clients[dst]
	return ok
}

func endpoint(ip string, port uint16) string {
	return net.JoinHostPort(ip, strconv.Itoa(int(port)))
}
