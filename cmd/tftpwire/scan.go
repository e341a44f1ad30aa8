package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/danmuck/tftpwire/internal/capture"
	"github.com/danmuck/tftpwire/internal/observability"
	"github.com/danmuck/tftpwire/internal/protocol"
	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		metrics    bool
		errorsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "scan FILE.pcap",
		Short: "Decode the TFTP datagrams in a pcap capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open capture: %w", err)
			}
			defer f.Close()

			dec, err := a.decoder()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			scanner := capture.NewScanner(dec, a.cfg.Scan.PortSet(), a.logger)
			sum, err := scanner.Scan(cmd.Context(), f, func(r capture.Record) error {
				if r.Err != nil {
					_, err := fmt.Fprintf(out, "#%d %s -> %s error(%s): %v\n",
						r.Frame, r.Src, r.Dst, protocol.ErrorKind(r.Err), r.Err)
					return err
				}
				if errorsOnly {
					return nil
				}
				_, err := fmt.Fprintf(out, "#%d %s -> %s %s\n", r.Frame, r.Src, r.Dst, r.Packet)
				return err
			})
			if err != nil {
				return err
			}
			printSummary(cmd, sum)
			if metrics {
				samples, err := observability.Snapshot()
				if err != nil {
					return fmt.Errorf("gather metrics: %w", err)
				}
				for _, s := range samples {
					fmt.Fprintf(out, "%s{%s} %g\n", s.Name, s.Label, s.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print codec counters after the summary")
	cmd.Flags().BoolVar(&errorsOnly, "errors-only", false, "print only datagrams that failed to decode")
	return cmd
}

func printSummary(cmd *cobra.Command, sum capture.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frames=%d tftp=%d\n", sum.Frames, sum.Datagrams)

	ops := make([]protocol.Opcode, 0, len(sum.Packets))
	for op := range sum.Packets {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	for _, op := range ops {
		fmt.Fprintf(out, "  %s=%d\n", op, sum.Packets[op])
	}

	kinds := make([]string, 0, len(sum.Errors))
	for k := range sum.Errors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "  error:%s=%d\n", k, sum.Errors[k])
	}
}
