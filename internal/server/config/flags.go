package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5001")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-b int      bcrypt cost for new passwords
//	-g string   Google OAuth client id
//	-r bool     allow public admin registration
//	-l bool     debug logging
//
// Only these flags are read from args, so -c/-config and flags of other
// components pass through untouched.
func parseFlags(config *Config, args []string) {
	args = flagx.NewFilter([]string{"-a", "-d", "-s", "-t", "-b", "-g"}, "-r", "-l").Apply(args)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.GoogleClientID, "g", config.GoogleClientID, "Google OAuth client id")
	fs.BoolVar(&config.AllowAdminRegistration, "r", config.AllowAdminRegistration, "allow public admin registration")
	fs.BoolVar(&config.Debug, "l", config.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only an explicit -t overrides, so sub-minute values from JSON or env survive.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
}
