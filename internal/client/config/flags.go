package config

import (
	"flag"
	"os"
	"time"

	"github.com/akgupta-cs/mediavault/internal/flagx"
)

// parseFlags overlays command line flags on top of whatever defaults
// and file values are already set.
func (c *Config) parseFlags() {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-i", "-d"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	server := fs.String("s", c.ServerURL, "server base URL")
	interval := fs.Duration("i", c.OnlineCheckInterval.Duration, "online check interval")
	dbPath := fs.String("d", c.LocalDBPath, "local settings db path")

	_ = fs.Parse(args)

	c.ServerURL = *server
	c.OnlineCheckInterval.Duration = *interval
	c.LocalDBPath = *dbPath

	if c.OnlineCheckInterval.Duration <= 0 {
		c.OnlineCheckInterval.Duration = 5 * time.Second
	}
}
