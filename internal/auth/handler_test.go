package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/users"
)

type memoryDirectory struct {
	byEmail map[string]users.User
}

func (d *memoryDirectory) FindByEmail(ctx context.Context, email string) (users.User, error) {
	u, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func newFixture(t *testing.T) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	directory := &memoryDirectory{byEmail: map[string]users.User{
		"clerk@meridian.test": {
			ID:           7,
			Email:        "clerk@meridian.test",
			Name:         "Warehouse clerk",
			Role:         "Clerk",
			Capabilities: []authz.Capability{authz.CapMaterialsView},
			IsActive:     true,
			PasswordHash: string(hash),
		},
		"gone@meridian.test": {
			ID:           8,
			Email:        "gone@meridian.test",
			IsActive:     false,
			PasswordHash: string(hash),
		},
	}}

	sessions := shared.NewSessionManager(client, "meridian_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(directory), sessions, csrf), sessions
}

func loginRequestWithSession(t *testing.T, sessions *shared.SessionManager, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestLoginIssuesSessionWithActorSnapshot(t *testing.T) {
	handler, sessions := newFixture(t)

	req := loginRequestWithSession(t, sessions, `{"email":"clerk@meridian.test","password":"correct horse"}`)
	rec := httptest.NewRecorder()
	handler.login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info sessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, int64(7), info.UserID)
	require.Equal(t, "Clerk", info.Role)
	require.Equal(t, []authz.Capability{authz.CapMaterialsView}, info.Capabilities)
	require.NotEmpty(t, info.CSRFToken)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "meridian_session", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	handler, sessions := newFixture(t)

	req := loginRequestWithSession(t, sessions, `{"email":"clerk@meridian.test","password":"wrong password"}`)
	rec := httptest.NewRecorder()
	handler.login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	handler, sessions := newFixture(t)

	req := loginRequestWithSession(t, sessions, `{"email":"gone@meridian.test","password":"correct horse"}`)
	rec := httptest.NewRecorder()
	handler.login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresActor(t *testing.T) {
	handler, sessions := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	handler.me(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
