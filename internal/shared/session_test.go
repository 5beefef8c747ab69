package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

func testSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "meridian_session", "test-secret", time.Hour, false)
}

func TestSessionRoundTripKeepsActorSnapshot(t *testing.T) {
	sm := testSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.False(t, sess.Authenticated())

	sess.SetActor(authz.Actor{
		UserID:       42,
		Role:         "Operator",
		Capabilities: []authz.Capability{authz.CapOrdersView, authz.CapOrdersSubmit},
	})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "meridian_session", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)

	actor, ok := loaded.Actor()
	require.True(t, ok)
	require.Equal(t, int64(42), actor.UserID)
	require.Equal(t, "Operator", actor.Role)
	require.Equal(t, []authz.Capability{authz.CapOrdersView, authz.CapOrdersSubmit}, actor.Capabilities)
}

func TestSessionSnapshotIsImmutableAfterLogin(t *testing.T) {
	sm := testSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetActor(authz.Actor{UserID: 9, Role: "Operator", Capabilities: []authz.Capability{authz.CapMaterialsView}})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookie := rec.Result().Cookies()[0]

	// A reload without SetActor never rewrites the stored snapshot, even
	// when committed again.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), loaded))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	again, err := sm.Load(ctx, req)
	require.NoError(t, err)
	actor, ok := again.Actor()
	require.True(t, ok)
	require.Equal(t, []authz.Capability{authz.CapMaterialsView}, actor.Capabilities)
}

func TestDestroyClearsSessionAndCookie(t *testing.T) {
	sm := testSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetActor(authz.Actor{UserID: 3, Role: authz.RoleAdmin})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookie := rec.Result().Cookies()[0]

	sm.Destroy(sess)
	out := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, out, sess))
	expired := out.Result().Cookies()
	require.Len(t, expired, 1)
	require.Equal(t, -1, expired[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.False(t, loaded.Authenticated())
}

func TestTamperedCookieSignatureIsRejected(t *testing.T) {
	sm := testSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetActor(authz.Actor{UserID: 5, Role: authz.RoleAdmin})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookie := rec.Result().Cookies()[0]
	require.Contains(t, cookie.Value, ".")

	// Keep the real session ID but break the signature: the stored session
	// must stay unreachable.
	id, _, ok := strings.Cut(cookie.Value, ".")
	require.True(t, ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: id + ".forged"})

	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.False(t, loaded.Authenticated())
}

func TestUnknownCookieYieldsFreshAnonymousSession(t *testing.T) {
	sm := testSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "meridian_session", Value: "expired-or-forged"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.False(t, sess.Authenticated())
}
