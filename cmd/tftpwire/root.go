package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/danmuck/tftpwire/internal/config"
	"github.com/danmuck/tftpwire/internal/logging"
	"github.com/danmuck/tftpwire/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	cfg        config.Config
	logger     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}
	root := &cobra.Command{
		Use:   "tftpwire",
		Short: "Encode, decode and scan TFTP packets",
		Long: `tftpwire converts TFTP packets (RFC 1350 with the RFC 2347-2349 option
extensions) between their wire bytes and a readable form, and scans pcap
captures for TFTP traffic.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"config file (default ./"+config.DefaultPath+" when present)")

	root.AddCommand(newEncodeCmd(a))
	root.AddCommand(newDecodeCmd(a))
	root.AddCommand(newScanCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// load reads the config file, falling back to defaults when no path was given
// and the default file does not exist, then installs the logger.
func (a *app) load() error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			a.installLogger()
			return nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.installLogger()
	a.logger.Debug().Str("path", path).Msg("loaded config")
	return nil
}

func (a *app) installLogger() {
	cfg := a.cfg.Log.Logging()
	logging.ApplyEnvOverrides(&cfg)
	a.logger = logging.Install(cfg)
}

func (a *app) decoder() (*protocol.Decoder, error) {
	return protocol.NewDecoder(a.cfg.Codec.Limits())
}
