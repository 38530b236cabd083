package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/promptlazy/internal/flagx"
)

// parseFlags overlays -a, -f and -t from args. Other arguments, such as the
// command name, are ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-t"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the API")
	fs.StringVar(&cfg.TokenFile, "f", cfg.TokenFile, "token file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
