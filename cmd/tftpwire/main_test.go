package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tftpwire/internal/protocol"
	"github.com/danmuck/tftpwire/internal/testutil/pcaptest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("tftpwire %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestEncodeAck(t *testing.T) {
	out := mustRun(t, "encode", "ack", "--block", "5")
	if strings.TrimSpace(out) != "00040005" {
		t.Fatalf("unexpected ack hex: %q", out)
	}
}

func TestEncodeRequestKeepsOptionOrder(t *testing.T) {
	out := mustRun(t, "encode", "wrq", "--file", "boot.img", "--mode", "netascii",
		"--opt", "tsize=2048", "--opt", "blksize=1024")
	want := hex.EncodeToString([]byte("\x00\x02boot.img\x00netascii\x00tsize\x002048\x00blksize\x001024\x00"))
	if strings.TrimSpace(out) != want {
		t.Fatalf("unexpected wrq hex:\n got %s\nwant %s", out, want)
	}
}

func TestEncodeRejectsInvalidPackets(t *testing.T) {
	cases := [][]string{
		{"encode", "rrq", "--file", "f", "--mode", "mail"},
		{"encode", "rrq", "--file", "f", "--opt", "novalue"},
		{"encode", "data", "--block", "0"},
		{"encode", "data", "--hex", "zz"},
		{"encode", "error", "--code", "9"},
		{"encode", "oack", "--opt", "a=1", "--opt", "A=2"},
	}
	for _, args := range cases {
		if _, err := run(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestEncodeErrorDefaultsMessage(t *testing.T) {
	out := mustRun(t, "encode", "error", "--code", "1")
	want := hex.EncodeToString(append([]byte{0x00, 0x05, 0x00, 0x01}, []byte("File not found\x00")...))
	if strings.TrimSpace(out) != want {
		t.Fatalf("unexpected error hex: %q", out)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	encoded := strings.TrimSpace(mustRun(t, "encode", "rrq", "--file", "file.txt", "--opt", "blksize=1024"))
	out := mustRun(t, "decode", encoded)
	want := `RRQ filename="file.txt" mode=octet options=[blksize=1024]`
	if strings.TrimSpace(out) != want {
		t.Fatalf("unexpected decode output: %q", out)
	}
}

func TestDecodeAcceptsSeparatedHexAndFiles(t *testing.T) {
	out := mustRun(t, "decode", "00:04", "00 05")
	if !strings.HasPrefix(out, "ACK") {
		t.Fatalf("unexpected decode output: %q", out)
	}

	path := filepath.Join(t.TempDir(), "packet.bin")
	if err := os.WriteFile(path, []byte{0x00, 0x03, 0x00, 0x01, 'h', 'i'}, 0o600); err != nil {
		t.Fatal(err)
	}
	out = mustRun(t, "decode", "--in", path, "--verbose")
	for _, want := range []string{"block:    1", "payload:  2 bytes", "final:    true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDecodeReportsMalformedInput(t *testing.T) {
	_, err := run(t, "decode", "0004000100")
	if err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Fatalf("expected trailing bytes error, got %v", err)
	}
	if _, err := run(t, "decode"); err == nil {
		t.Fatalf("expected error without input")
	}
}

func TestDecodeUsesConfiguredBlockSize(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tftpwire.toml")
	if err := os.WriteFile(cfgPath, []byte("[codec]\nmax_block_size = 1024\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	big := hex.EncodeToString(append([]byte{0x00, 0x03, 0x00, 0x01}, make([]byte, 1024)...))

	if _, err := run(t, "decode", big); err == nil {
		t.Fatalf("expected oversized payload with default limits")
	}
	mustRun(t, "--config", cfgPath, "decode", big)
}

func TestScanPrintsRecordsAndSummary(t *testing.T) {
	rrq, err := protocol.NewReadRequest("boot.cfg", "octet")
	if err != nil {
		t.Fatal(err)
	}
	capBytes := pcaptest.Capture(t,
		pcaptest.Datagram{SrcIP: "10.0.0.2", DstIP: "10.0.0.1", SrcPort: 50000, DstPort: 69, Payload: protocol.Encode(rrq)},
		pcaptest.Datagram{SrcIP: "10.0.0.7", DstIP: "10.0.0.1", SrcPort: 41000, DstPort: 69, Payload: []byte{0x00, 0x09}},
	)
	path := filepath.Join(t.TempDir(), "tftp.pcap")
	if err := os.WriteFile(path, capBytes, 0o600); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "scan", path, "--metrics")
	for _, want := range []string{
		`#1 10.0.0.2:50000 -> 10.0.0.1:69 RRQ filename="boot.cfg"`,
		"#2 10.0.0.7:41000 -> 10.0.0.1:69 error(unknown_opcode)",
		"frames=2 tftp=2",
		"  RRQ=1",
		"  error:unknown_opcode=1",
		"tftpwire_codec_packets_total{opcode=RRQ}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	out = mustRun(t, "scan", path, "--errors-only")
	if strings.Contains(out, "RRQ filename") {
		t.Fatalf("errors-only printed a decoded packet:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tftpwire.toml")
	mustRun(t, "config", "init", "--out", path)
	if _, err := run(t, "config", "init", "--out", path); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	mustRun(t, "config", "init", "--out", path, "--force")

	out := mustRun(t, "config", "validate", path)
	if !strings.Contains(out, "ok: level=info max_block_size=512 ports=[69]") {
		t.Fatalf("unexpected validate output: %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[codec]\nmax_block_size = 4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "config", "validate", bad); err == nil {
		t.Fatalf("expected validation failure")
	}
	if _, err := run(t, "--config", bad, "encode", "ack"); err == nil {
		t.Fatalf("expected root load to fail on bad config")
	}
}
