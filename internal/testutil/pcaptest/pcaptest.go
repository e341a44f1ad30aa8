package pcaptest

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Datagram describes one frame of a synthetic capture. TCP frames carry the
// payload in a TCP segment instead of UDP.
type Datagram struct {
	SrcIP   string
	DstIP   string
	SrcPort uint16
	DstPort uint16
	Payload []byte
	TCP     bool
}

var (
	srcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	dstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	epoch  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Capture returns a pcap file holding one Ethernet/IPv4 frame per datagram,
// one millisecond apart.
func Capture(t testing.TB, datagrams ...Datagram) []byte {
	t.Helper()

	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("write pcap header: %v", err)
	}
	for i, d := range datagrams {
		frame := Frame(t, d)
		ci := gopacket.CaptureInfo{
			Timestamp:     epoch.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err := w.WritePacket(ci, frame); err != nil {
			t.Fatalf("write pcap frame %d: %v", i, err)
		}
	}
	return out.Bytes()
}

// Frame serializes a single datagram into Ethernet bytes.
func Frame(t testing.TB, d Datagram) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(d.SrcIP).To4(),
		DstIP:    net.ParseIP(d.DstIP).To4(),
	}
	var transport gopacket.SerializableLayer
	if d.TCP {
		ip.Protocol = layers.IPProtocolTCP
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(d.SrcPort),
			DstPort: layers.TCPPort(d.DstPort),
			Seq:     1,
			PSH:     true,
			ACK:     true,
			Window:  1024,
		}
		if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
			t.Fatalf("tcp checksum layer: %v", err)
		}
		transport = tcp
	} else {
		udp := &layers.UDP{
			SrcPort: layers.UDPPort(d.SrcPort),
			DstPort: layers.UDPPort(d.DstPort),
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			t.Fatalf("udp checksum layer: %v", err)
		}
		transport = udp
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, transport, gopacket.Payload(d.Payload)); err != nil {
		t.Fatalf("serialize frame: %v", err)
	}
	return buf.Bytes()
}
