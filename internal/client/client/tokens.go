package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/promptlazy/internal/filex"
)

const (
	defaultTokenDir  = ".promptlazy"
	defaultTokenFile = "tokens.json"
)

// Tokens is what the CLI remembers between runs.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenStore persists Tokens. Load returns ErrNotLoggedIn when nothing is stored.
type TokenStore interface {
	Load() (*Tokens, error)
	Save(*Tokens) error
	Clear() error
}

// FileTokenStore keeps tokens in a JSON file with owner-only permissions.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore uses path, or ~/.promptlazy/tokens.json when path is empty.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		dir, err := filex.EnsureHomeSubdir(defaultTokenDir)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, defaultTokenFile)
	}
	return &FileTokenStore{path: path}, nil
}

func (s *FileTokenStore) Path() string { return s.path }

func (s *FileTokenStore) Load() (*Tokens, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}

	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("token file %s: %w", s.path, err)
	}
	if t.AccessToken == "" && t.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}
	return &t, nil
}

func (s *FileTokenStore) Save(t *Tokens) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return filex.WritePrivateFile(s.path, data)
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
