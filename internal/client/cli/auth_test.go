package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/promptlazy/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInputs answers text prompts from texts and password prompts from
// passwords, in order.
func stubInputs(t *testing.T, texts []string, passwords [][]byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(string, io.Writer) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		p := passwords[0]
		passwords = passwords[1:]
		return p, nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

type fakeClient struct {
	regEmail, regUser, regName string
	regPass                    []byte
	loginEmail                 string
	loginPass                  []byte
	update                     client.ProfileUpdate
	profile                    *client.Profile
	err                        error
	refreshed, loggedOut       bool
}

func (f *fakeClient) Register(_ context.Context, email, username, fullName string, password []byte) error {
	f.regEmail, f.regUser, f.regName = email, username, fullName
	f.regPass = append([]byte(nil), password...)
	return f.err
}

func (f *fakeClient) Login(_ context.Context, email string, password []byte) error {
	f.loginEmail, f.loginPass = email, append([]byte(nil), password...)
	return f.err
}

func (f *fakeClient) Refresh(context.Context) error {
	f.refreshed = true
	return f.err
}

func (f *fakeClient) Me(context.Context) (*client.Profile, error) {
	return f.profile, f.err
}

func (f *fakeClient) UpdateMe(_ context.Context, upd client.ProfileUpdate) (*client.Profile, error) {
	f.update = upd
	return f.profile, f.err
}

func (f *fakeClient) Ping(context.Context) error { return f.err }

func (f *fakeClient) Logout() error {
	f.loggedOut = true
	return f.err
}

func newTestApp(f *fakeClient) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{api: f, reader: rdr(""), out: &out}, &out
}

func TestRegister_WipesPassword(t *testing.T) {
	f := &fakeClient{}
	a, out := newTestApp(f)

	pw := []byte("secret")
	stubInputs(t, []string{"a@x.com", "alice", "Alice"}, [][]byte{pw})

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, "a@x.com", f.regEmail)
	assert.Equal(t, "alice", f.regUser)
	assert.Equal(t, "Alice", f.regName)
	assert.Equal(t, []byte("secret"), f.regPass)
	assert.Equal(t, make([]byte, len(pw)), pw, "password must be wiped")
	assert.Contains(t, out.String(), "Registered")
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := &fakeClient{}
		a, out := newTestApp(f)
		stubInputs(t, []string{"a@x.com"}, [][]byte{[]byte("pw")})

		require.NoError(t, a.Login(context.Background()))
		assert.Equal(t, "a@x.com", f.loginEmail)
		assert.Contains(t, out.String(), "Login successful")
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := &fakeClient{err: &client.APIError{Status: 401, Kind: "invalid_credentials"}}
		a, _ := newTestApp(f)
		stubInputs(t, []string{"a@x.com"}, [][]byte{[]byte("bad")})

		err := a.Login(context.Background())
		require.EqualError(t, err, "invalid email or password")
	})

	t.Run("input error", func(t *testing.T) {
		a, _ := newTestApp(&fakeClient{})
		stubInputs(t, nil, nil)
		require.ErrorIs(t, a.Login(context.Background()), io.EOF)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Run("keeps password when empty", func(t *testing.T) {
		f := &fakeClient{profile: &client.Profile{ID: "u1", FullName: "New"}}
		a, out := newTestApp(f)
		stubInputs(t, []string{"", "", "New"}, [][]byte{{}})

		require.NoError(t, a.UpdateProfile(context.Background()))
		assert.Equal(t, client.ProfileUpdate{FullName: "New"}, f.update)
		assert.Contains(t, out.String(), "full name: New")
	})

	t.Run("asks for current password", func(t *testing.T) {
		f := &fakeClient{profile: &client.Profile{ID: "u1"}}
		a, _ := newTestApp(f)
		stubInputs(t, []string{"", "", ""}, [][]byte{[]byte("new"), []byte("old")})

		require.NoError(t, a.UpdateProfile(context.Background()))
		assert.Equal(t, "new", f.update.NewPassword)
		assert.Equal(t, "old", f.update.CurrentPassword)
	})
}

func TestSimpleCommands(t *testing.T) {
	f := &fakeClient{profile: &client.Profile{ID: "u1", Email: "a@x.com"}}
	a, out := newTestApp(f)
	ctx := context.Background()

	require.NoError(t, a.Me(ctx))
	assert.Contains(t, out.String(), "a@x.com")

	require.NoError(t, a.Refresh(ctx))
	assert.True(t, f.refreshed)

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "alive")

	require.NoError(t, a.Logout(ctx))
	assert.True(t, f.loggedOut)

	f.err = errors.New("boom")
	require.Error(t, a.Me(ctx))
	require.Error(t, a.Status(ctx))
}
