package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/dbx"
	"github.com/dmitrijs2005/promptlazy/internal/server/auth"
	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/dmitrijs2005/promptlazy/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory users.Repository enforcing the same unique
// constraints as the schema.
type memUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.User
	failGet error
	updates int
	locks   int

	// beforeLock runs ahead of each locking read, standing in for a
	// transaction that commits first.
	beforeLock func()
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) conflict(u *models.User) error {
	for id, other := range m.byID {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return &common.UniqueViolationError{Field: "email"}
		}
		if other.UserName == u.UserName {
			return &common.UniqueViolationError{Field: "username"}
		}
	}
	return nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if err := m.conflict(u); err != nil {
		return nil, err
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.byID[u.ID] = &cp
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.beforeLock != nil {
		m.beforeLock()
	}
	m.mu.Lock()
	m.locks++
	m.mu.Unlock()
	return m.GetUserByID(ctx, id)
}

func (m *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	if err := m.conflict(u); err != nil {
		return nil, err
	}
	m.updates++
	u.UpdatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return u, nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) stored(id uuid.UUID) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

type fakeManager struct {
	users *memUsers

	mu   sync.Mutex
	inTx bool
}

func (f *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }

// Users remembers whether the last repository was bound to a transaction.
func (f *fakeManager) Users(db dbx.DBTX) users.Repository {
	f.mu.Lock()
	_, f.inTx = db.(*sql.Tx)
	f.mu.Unlock()
	return f.users
}

func (f *fakeManager) txBound() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inTx
}

// countingHasher records how many hashes and verifications ran. onHash, when
// set, is called before each hash.
type countingHasher struct {
	auth.PasswordHasher
	mu       sync.Mutex
	verifies int
	hashes   int
	onHash   func()
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.mu.Lock()
	h.hashes++
	hook := h.onHash
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	return h.PasswordHasher.Hash(password)
}

func (h *countingHasher) hashCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes
}

func (h *countingHasher) Verify(password, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(password, hash)
}

func (h *countingHasher) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type fixture struct {
	svc     *AuthService
	users   *memUsers
	manager *fakeManager
	hasher *countingHasher
	codec  *auth.TokenCodec
	mock   sqlmock.Sqlmock
	db     *sql.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bc, err := auth.NewBcryptHasher(4)
	require.NoError(t, err)
	hasher := &countingHasher{PasswordHasher: bc}

	codec, err := auth.NewTokenCodec([]byte("test-secret"), 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	mem := newMemUsers()
	manager := &fakeManager{users: mem}
	svc, err := NewAuthService(db, manager, hasher, codec, nil)
	require.NoError(t, err)

	return &fixture{svc: svc, users: mem, manager: manager, hasher: hasher, codec: codec, mock: mock, db: db}
}

// countingVerifier counts how often a token reached verification.
type countingVerifier struct {
	TokenVerifier
	mu    sync.Mutex
	calls int
}

func (v *countingVerifier) Verify(token string, expected auth.TokenType) (string, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	return v.TokenVerifier.Verify(token, expected)
}

func (v *countingVerifier) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type failingHasher struct {
	auth.PasswordHasher
}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("entropy exhausted") }

func ptr(s string) *string { return &s }
