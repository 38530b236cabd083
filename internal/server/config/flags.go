package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/promptlazy/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-x string   password hash algorithm (bcrypt | argon2id)
//	-k int      password hash cost
//	-l string   log backend (zap | slog)
//	-q int      /auth requests per minute per client, 0 disables
//	-o string   comma-separated CORS origins
//
// args is filtered with flagx.FilterArgs first, so -c/-config and unknown
// flags do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-r", "-x", "-k", "-l", "-q", "-o"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.PasswordHashAlgorithm, "x", config.PasswordHashAlgorithm, "password hash algorithm")
	fs.IntVar(&config.PasswordHashCost, "k", config.PasswordHashCost, "password hash cost")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend")
	fs.IntVar(&config.RateLimitPerMinute, "q", config.RateLimitPerMinute, "auth requests per minute per client")
	origins := fs.String("o", "", "comma-separated CORS origins")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// durations set by earlier layers keep their precision unless overridden here
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		case "o":
			if *origins != "" {
				config.CORSAllowedOrigins = splitList(*origins)
			}
		}
	})
	return nil
}
