package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/danmuck/tftpwire/internal/protocol"
	"github.com/danmuck/tftpwire/internal/protocol/option"
	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a packet and print its wire bytes as hex",
	}
	cmd.AddCommand(newEncodeRequestCmd(a, protocol.OpRRQ))
	cmd.AddCommand(newEncodeRequestCmd(a, protocol.OpWRQ))
	cmd.AddCommand(newEncodeDataCmd(a))
	cmd.AddCommand(newEncodeAckCmd(a))
	cmd.AddCommand(newEncodeErrorCmd(a))
	cmd.AddCommand(newEncodeOAckCmd(a))
	return cmd
}

func newEncodeRequestCmd(a *app, op protocol.Opcode) *cobra.Command {
	var (
		filename string
		mode     string
		opts     []string
	)
	cmd := &cobra.Command{
		Use:   strings.ToLower(op.String()),
		Short: fmt.Sprintf("Encode a %s packet", op),
		Example: fmt.Sprintf("  tftpwire encode %s --file boot.img --mode octet --opt blksize=1428",
			strings.ToLower(op.String())),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseOptionFlags(opts)
			if err != nil {
				return err
			}
			req, err := protocol.NewRequest(op, filename, mode, pairs...)
			if err != nil {
				return err
			}
			return a.printEncoded(cmd, req)
		},
	}
	cmd.Flags().StringVarP(&filename, "file", "f", "", "requested file name")
	cmd.Flags().StringVarP(&mode, "mode", "m", "octet", "transfer mode: netascii|octet")
	cmd.Flags().StringArrayVarP(&opts, "opt", "o", nil, "option as name=value (repeatable, order kept)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newEncodeDataCmd(a *app) *cobra.Command {
	var (
		block      uint16
		payloadHex string
		text       string
	)
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Encode a DATA packet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := []byte(text)
			if cmd.Flags().Changed("hex") {
				if cmd.Flags().Changed("text") {
					return fmt.Errorf("--hex and --text are mutually exclusive")
				}
				b, err := parseHex(payloadHex)
				if err != nil {
					return fmt.Errorf("parse --hex: %w", err)
				}
				payload = b
			}
			d, err := protocol.NewDataSized(block, payload, a.cfg.Codec.MaxBlockSize)
			if err != nil {
				return err
			}
			return a.printEncoded(cmd, d)
		},
	}
	cmd.Flags().Uint16VarP(&block, "block", "b", 1, "block number (>= 1)")
	cmd.Flags().StringVar(&payloadHex, "hex", "", "payload as hex")
	cmd.Flags().StringVar(&text, "text", "", "payload as text")
	return cmd
}

func newEncodeAckCmd(a *app) *cobra.Command {
	var block uint16
	cmd := &cobra.Command{
		Use:   "ack",
		Short: "Encode an ACK packet (block 0 acknowledges an OACK)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ack, err := protocol.NewAck(block)
			if err != nil {
				return err
			}
			return a.printEncoded(cmd, ack)
		},
	}
	cmd.Flags().Uint16VarP(&block, "block", "b", 0, "block number")
	return cmd
}

func newEncodeErrorCmd(a *app) *cobra.Command {
	var (
		code    uint16
		message string
	)
	cmd := &cobra.Command{
		Use:   "error",
		Short: "Encode an ERROR packet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				e   protocol.Error
				err error
			)
			if cmd.Flags().Changed("message") {
				e, err = protocol.NewError(protocol.ErrorCode(code), message)
			} else {
				e, err = protocol.NewErrorCode(protocol.ErrorCode(code))
			}
			if err != nil {
				return err
			}
			return a.printEncoded(cmd, e)
		},
	}
	cmd.Flags().Uint16Var(&code, "code", 0, "error code 0-8")
	cmd.Flags().StringVar(&message, "message", "", "error message (default: conventional text for the code)")
	return cmd
}

func newEncodeOAckCmd(a *app) *cobra.Command {
	var opts []string
	cmd := &cobra.Command{
		Use:   "oack",
		Short: "Encode an OACK packet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseOptionFlags(opts)
			if err != nil {
				return err
			}
			oack, err := protocol.NewOAck(pairs...)
			if err != nil {
				return err
			}
			return a.printEncoded(cmd, oack)
		},
	}
	cmd.Flags().StringArrayVarP(&opts, "opt", "o", nil, "option as name=value (repeatable, order kept)")
	return cmd
}

func (a *app) printEncoded(cmd *cobra.Command, p protocol.Packet) error {
	out := protocol.Encode(p)
	a.logger.Debug().Stringer("packet", p).Int("bytes", len(out)).Msg("encoded")
	_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out))
	return err
}

func parseOptionFlags(raw []string) ([]option.Pair, error) {
	pairs := make([]option.Pair, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("option %q: want name=value", r)
		}
		pairs = append(pairs, option.Pair{Name: name, Value: value})
	}
	return pairs, nil
}

// parseHex accepts hex with optional whitespace, colons or a 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(s)
}
