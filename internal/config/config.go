package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tftpwire/internal/logging"
	"github.com/danmuck/tftpwire/internal/protocol"
)

// DefaultPath is where the CLI looks when --config is not given.
const DefaultPath = "tftpwire.toml"

// Config is the tooling configuration. The codec itself reads none of it;
// the CLI turns it into protocol.Limits and a logger.
type Config struct {
	Log   LogConfig   `toml:"log"`
	Codec CodecConfig `toml:"codec"`
	Scan  ScanConfig  `toml:"scan"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	Timestamp  bool   `toml:"timestamp"`
	NoColor    bool   `toml:"no_color"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type CodecConfig struct {
	MaxBlockSize int `toml:"max_block_size"`
}

type ScanConfig struct {
	Ports []int `toml:"ports"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:      "info",
			Timestamp:  true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Codec: CodecConfig{MaxBlockSize: protocol.DefaultBlockSize},
		Scan:  ScanConfig{Ports: []int{69}},
	}
}

// Load overlays the keys present in the TOML file at path onto Default.
func Load(path string) (Config, error) {
	cfg := Default()
	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, undecoded[0])
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}
	if meta.IsDefined("log", "max_size_mb") {
		cfg.Log.MaxSizeMB = raw.Log.MaxSizeMB
	}
	if meta.IsDefined("log", "max_backups") {
		cfg.Log.MaxBackups = raw.Log.MaxBackups
	}
	if meta.IsDefined("log", "max_age_days") {
		cfg.Log.MaxAgeDays = raw.Log.MaxAgeDays
	}
	if meta.IsDefined("log", "compress") {
		cfg.Log.Compress = raw.Log.Compress
	}
	if meta.IsDefined("codec", "max_block_size") {
		cfg.Codec.MaxBlockSize = raw.Codec.MaxBlockSize
	}
	if meta.IsDefined("scan", "ports") {
		cfg.Scan.Ports = raw.Scan.Ports
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive when log.file is set")
	}
	if err := cfg.Codec.Limits().Validate(); err != nil {
		return fmt.Errorf("codec.max_block_size: %w", err)
	}
	if len(cfg.Scan.Ports) == 0 {
		return fmt.Errorf("scan.ports must list at least one port")
	}
	for i, port := range cfg.Scan.Ports {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("scan.ports[%d]: %d is not a UDP port", i, port)
		}
	}
	return nil
}

func (c CodecConfig) Limits() protocol.Limits {
	return protocol.Limits{MaxBlockSize: c.MaxBlockSize}
}

// Logging converts the section to a logging.Config. Level must already be
// valid.
func (c LogConfig) Logging() logging.Config {
	lvl, _ := logging.ParseLevel(c.Level)
	return logging.Config{
		Level:     lvl,
		Timestamp: c.Timestamp,
		NoColor:   c.NoColor,
		File: logging.FileConfig{
			Path:       c.File,
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAgeDays: c.MaxAgeDays,
			Compress:   c.Compress,
		},
	}
}

// PortSet returns the scan ports as a lookup table.
func (c ScanConfig) PortSet() map[uint16]struct{} {
	set := make(map[uint16]struct{}, len(c.Ports))
	for _, p := range c.Ports {
		set[uint16(p)] = struct{}{}
	}
	return set
}
