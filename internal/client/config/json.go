package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/akgupta-cs/mediavault/internal/flagx"
	"github.com/akgupta-cs/mediavault/internal/timex"
)

type jsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	LocalDBPath         *string         `json:"local_db_path"`
}

// parseJson overlays values from the file named by -c/-config, when
// given.
func (c *Config) parseJson() error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if jc.ServerURL != nil {
		c.ServerURL = *jc.ServerURL
	}
	if jc.OnlineCheckInterval != nil {
		c.OnlineCheckInterval = *jc.OnlineCheckInterval
	}
	if jc.LocalDBPath != nil {
		c.LocalDBPath = *jc.LocalDBPath
	}
	return nil
}
