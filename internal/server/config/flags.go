package config

import (
	"flag"
	"os"

	"github.com/akgupta-cs/mediavault/internal/flagx"
)

func (c *Config) parseFlags() {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-r"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	addr := fs.String("a", c.Addr, "listen address")
	dsn := fs.String("d", c.DatabaseDSN, "database DSN")
	key := fs.String("k", c.SecretKey, "token signing key")
	redis := fs.String("r", c.RedisAddr, "redis address for the admin cache")

	_ = fs.Parse(args)

	c.Addr = *addr
	c.DatabaseDSN = *dsn
	c.SecretKey = *key
	c.RedisAddr = *redis
}
