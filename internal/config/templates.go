package config

import (
	"fmt"
	"os"
)

func Template() string {
	return defaultTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `[log]
level = "info"
timestamp = true
no_color = false
# file = "/var/log/tftpwire.log"
max_size_mb = 10
max_backups = 3
max_age_days = 7
compress = false

[codec]
# raise only when every transfer being decoded negotiated blksize
max_block_size = 512

[scan]
ports = [69]
`
