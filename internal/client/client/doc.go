// Package client talks to the promptlazy HTTP API on behalf of the CLI.
//
// HTTPClient implements Client. Tokens obtained from register and login are
// kept in a TokenStore (a JSON file by default). When an authenticated call
// is rejected with 401 and a refresh token is stored, the client refreshes
// the access token once and retries.
//
// Transport failures map to ErrUnavailable; API error bodies are returned as
// *APIError, and 401 responses also match ErrUnauthorized.
package client
