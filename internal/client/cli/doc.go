// Package cli provides the promptlazy command-line client.
//
// A single command can be given as an argument (promptlazy login); without
// one, an interactive REPL starts. Passwords are read from the terminal
// without echo and wiped after use.
//
// Commands: register, login, refresh, me, update, logout, status, help, exit.
package cli
