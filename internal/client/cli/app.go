package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/promptlazy/internal/client/client"
	"github.com/dmitrijs2005/promptlazy/internal/client/config"
)

type App struct {
	config *config.Config
	api    client.Client
	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the CLI against the API at c.ServerURL, keeping tokens in
// c.TokenFile.
func NewApp(c *config.Config) (*App, error) {
	store, err := client.NewFileTokenStore(c.TokenFile)
	if err != nil {
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, store)

	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run executes the command named in args, or starts the REPL when there is none.
func (a *App) Run(ctx context.Context, args []string) error {
	if cmd, ok := commandFromArgs(args); ok {
		return a.execute(ctx, cmd)
	}
	a.Root(ctx)
	return nil
}
