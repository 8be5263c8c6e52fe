package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/farmhand/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN; empty keeps users in memory
//	-s string     JWT HMAC secret key
//	-o duration   store call timeout (e.g., "5s")
//	-x string     password hasher, "bcrypt" or "argon2id"
//	-l string     log level: debug, info, warn or error
//
// Unknown arguments are filtered out first with flagx.FilterArgs. Invalid
// values panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-o", "-x", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.StoreTimeout, "o", config.StoreTimeout, "user store call timeout")
	fs.StringVar(&config.PasswordHasher, "x", config.PasswordHasher, "password hasher (bcrypt|argon2id)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
