package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/dbx"
	"github.com/dmitrijs2005/promptlazy/internal/logging"
	"github.com/dmitrijs2005/promptlazy/internal/server/auth"
	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/dmitrijs2005/promptlazy/internal/server/repositories/users"
	"github.com/dmitrijs2005/promptlazy/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]models.User
}

func (m *memUsers) taken(u *models.User) error {
	for id, o := range m.byID {
		if id == u.ID {
			continue
		}
		if o.Email == u.Email {
			return &common.UniqueViolationError{Field: "email"}
		}
		if o.UserName == u.UserName {
			return &common.UniqueViolationError{Field: "username"}
		}
	}
	return nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.New()
	if err := m.taken(u); err != nil {
		return nil, err
	}
	m.byID[u.ID] = *u
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (m *memUsers) GetUserByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetUserByID(ctx, id)
}

func (m *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.taken(u); err != nil {
		return nil, err
	}
	m.byID[u.ID] = *u
	return u, nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type memManager struct{ users *memUsers }

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository { return m.users }

type testAPI struct {
	engine *gin.Engine
	codec  *auth.TokenCodec
	mock   sqlmock.Sqlmock
}

func newTestAPI(t *testing.T, cfg RouterConfig) *testAPI {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hasher, err := auth.NewBcryptHasher(4)
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec([]byte("http-test-secret"), 15*time.Minute, time.Hour)
	require.NoError(t, err)

	rm := &memManager{users: &memUsers{byID: map[uuid.UUID]models.User{}}}
	svc, err := services.NewAuthService(db, rm, hasher, codec, logging.Nop{})
	require.NoError(t, err)
	resolver := services.NewCurrentUserResolver(db, rm, codec)

	h := NewHandler(svc, logging.Nop{})
	return &testAPI{engine: NewRouter(h, resolver, cfg), codec: codec, mock: mock}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (a *testAPI) register(t *testing.T, email, username string) tokenPairResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email: email, Password: "pass-" + username, Username: username, FullName: "Full " + username,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[tokenPairResponse](t, w)
}
