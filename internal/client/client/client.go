package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/netx"
)

// Profile is the public view of the logged-in user.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// ProfileUpdate carries the fields to change; empty strings are omitted.
type ProfileUpdate struct {
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	FullName        string `json:"full_name,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
}

// Client is the API contract used by the CLI.
type Client interface {
	Register(ctx context.Context, email, username, fullName string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) (*Profile, error)
	UpdateMe(ctx context.Context, upd ProfileUpdate) (*Profile, error)
	Ping(ctx context.Context) error
	Logout() error
}

// HTTPClient implements Client over the JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   TokenStore
}

func NewHTTPClient(baseURL string, timeout time.Duration, store TokenStore) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (c *HTTPClient) Register(ctx context.Context, email, username, fullName string, password []byte) error {
	req := map[string]string{
		"email":     email,
		"password":  string(password),
		"username":  username,
		"full_name": fullName,
	}
	return c.obtainTokens(ctx, "/auth/register", req)
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) error {
	req := map[string]string{"email": email, "password": string(password)}
	return c.obtainTokens(ctx, "/auth/login", req)
}

// Refresh swaps the stored refresh token for a new access token.
func (c *HTTPClient) Refresh(ctx context.Context) error {
	tokens, err := c.store.Load()
	if err != nil {
		return err
	}
	if tokens.RefreshToken == "" {
		return ErrNotLoggedIn
	}

	var resp tokenResponse
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", nil,
		map[string]string{"refresh_token": tokens.RefreshToken}, &resp); err != nil {
		return err
	}

	tokens.AccessToken = resp.AccessToken
	return c.store.Save(tokens)
}

func (c *HTTPClient) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.authorized(ctx, http.MethodGet, "/auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UpdateMe(ctx context.Context, upd ProfileUpdate) (*Profile, error) {
	var p Profile
	if err := c.authorized(ctx, http.MethodPut, "/auth/me", upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Ping checks that the server is reachable and alive.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/status", nil, nil, nil)
}

// Logout forgets the stored tokens. Tokens are stateless, so the server is
// not contacted.
func (c *HTTPClient) Logout() error {
	return c.store.Clear()
}

func (c *HTTPClient) obtainTokens(ctx context.Context, path string, req any) error {
	var resp tokenResponse
	if err := c.call(ctx, http.MethodPost, path, nil, req, &resp); err != nil {
		return err
	}
	return c.store.Save(&Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
}

// authorized performs an authenticated call, refreshing the access token
// once if the server rejects it.
func (c *HTTPClient) authorized(ctx context.Context, method, path string, in, out any) error {
	tokens, err := c.store.Load()
	if err != nil {
		return err
	}

	err = c.call(ctx, method, path, bearer(tokens.AccessToken), in, out)
	if !errors.Is(err, ErrUnauthorized) || tokens.RefreshToken == "" {
		return err
	}

	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}
	tokens, lerr := c.store.Load()
	if lerr != nil {
		return lerr
	}
	return c.call(ctx, method, path, bearer(tokens.AccessToken), in, out)
}

func (c *HTTPClient) call(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	status, body, err := netx.DoJSON(ctx, c.http, method, c.baseURL+path, headers, in)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if status >= http.StatusBadRequest {
		apiErr := &APIError{Status: status}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func bearer(token string) map[string]string {
	return map[string]string{common.AuthorizationHeaderName: common.BearerPrefix + token}
}
