// Package config loads runtime configuration for the promptlazy CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c / -config (or $CONFIG).
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the promptlazy API
//	-f string   path of the token file
//	-t int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "token_file": "/home/me/.promptlazy/tokens.json",
//	  "request_timeout": "10s"
//	}
package config
