// Package config assembles the client configuration from defaults, an
// optional JSON file and command line flags, in that order.
package config

import (
	"time"

	"github.com/akgupta-cs/mediavault/internal/timex"
)

type Config struct {
	// ServerURL is the base URL of the vault server.
	ServerURL string
	// OnlineCheckInterval is how often the connectivity probe runs.
	OnlineCheckInterval timex.Duration
	// LocalDBPath is the sqlite file holding local settings.
	LocalDBPath string
}

func (c *Config) loadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.OnlineCheckInterval = timex.Duration{Duration: 5 * time.Second}
	c.LocalDBPath = "mediavault.db"
}

// New builds the effective configuration.
func New() (*Config, error) {
	c := &Config{}
	c.loadDefaults()
	if err := c.parseJson(); err != nil {
		return nil, err
	}
	c.parseFlags()
	return c, nil
}
