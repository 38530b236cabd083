package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errExit = errors.New("exit")

var commands = map[string]func(a *App, ctx context.Context) error{
	"register": (*App).Register,
	"login":    (*App).Login,
	"refresh":  (*App).Refresh,
	"me":       (*App).Me,
	"update":   (*App).UpdateProfile,
	"logout":   (*App).Logout,
	"status":   (*App).Status,
	"help":     (*App).help,
	"exit":     func(*App, context.Context) error { return errExit },
	"quit":     func(*App, context.Context) error { return errExit },
}

// commandFromArgs returns the first argument naming a known command.
func commandFromArgs(args []string) (string, bool) {
	for _, arg := range args {
		if _, ok := commands[arg]; ok {
			return arg, true
		}
	}
	return "", false
}

func (a *App) execute(ctx context.Context, cmd string) error {
	fn, ok := commands[cmd]
	if !ok {
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return fn(a, ctx)
}

func (a *App) help(context.Context) error {
	fmt.Fprintln(a.out, "Available commands: register, login, refresh, me, update, logout, status, exit")
	return nil
}

// Root runs the interactive loop until exit or end of input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to PromptLazy CLI (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, "promptlazy> ")
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		err = a.execute(ctx, parts[0])
		if errors.Is(err, errExit) {
			fmt.Fprintln(a.out, "Bye!")
			return
		}
		if err != nil {
			fmt.Fprintln(a.out, "Error:", err)
		}
	}
}
