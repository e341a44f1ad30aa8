package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/tftpwire/internal/protocol"
	"github.com/danmuck/tftpwire/internal/protocol/option"
	"github.com/spf13/cobra"
)

func newDecodeCmd(a *app) *cobra.Command {
	var (
		in      string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "decode [HEX]",
		Short: "Decode one packet from hex or a raw file",
		Example: `  tftpwire decode 0004 0005
  tftpwire decode --in packet.bin`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPacketInput(in, args)
			if err != nil {
				return err
			}
			dec, err := a.decoder()
			if err != nil {
				return err
			}
			p, err := dec.Decode(raw)
			if err != nil {
				a.logger.Debug().Str("kind", protocol.ErrorKind(err)).Err(err).Msg("decode_failed")
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, p.String())
			if verbose {
				printDetail(cmd, p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "read raw packet bytes from file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print one field per line")
	return cmd
}

func readPacketInput(path string, args []string) ([]byte, error) {
	switch {
	case path != "" && len(args) > 0:
		return nil, fmt.Errorf("give either HEX or --in, not both")
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return b, nil
	case len(args) > 0:
		b, err := parseHex(strings.Join(args, ""))
		if err != nil {
			return nil, fmt.Errorf("parse hex: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("nothing to decode: give HEX or --in")
	}
}

func printDetail(cmd *cobra.Command, p protocol.Packet) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  opcode:   %d (%s)\n", uint16(p.Opcode()), p.Opcode())
	fmt.Fprintf(out, "  length:   %d\n", p.EncodedLen())
	switch v := p.(type) {
	case protocol.Request:
		fmt.Fprintf(out, "  filename: %s\n", v.Filename())
		fmt.Fprintf(out, "  mode:     %s\n", v.Mode())
		printOptions(cmd, v.Options())
	case protocol.Data:
		fmt.Fprintf(out, "  block:    %d\n", v.Block())
		fmt.Fprintf(out, "  payload:  %d bytes\n", v.Len())
		fmt.Fprintf(out, "  final:    %t\n", v.Final())
	case protocol.Ack:
		fmt.Fprintf(out, "  block:    %d\n", v.Block())
	case protocol.Error:
		fmt.Fprintf(out, "  code:     %d (%s)\n", uint16(v.Code()), v.Code())
		fmt.Fprintf(out, "  message:  %s\n", v.Message())
	case protocol.OAck:
		printOptions(cmd, v.Options())
	}
}

func printOptions(cmd *cobra.Command, list option.List) {
	for _, p := range list.Pairs() {
		fmt.Fprintf(cmd.OutOrStdout(), "  option:   %s\n", p)
	}
}
