package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSRFTokenIsStablePerSession(t *testing.T) {
	m := NewCSRFManager("csrf-secret")

	sess := &Session{ID: "session-a"}
	token := m.Token(sess)
	require.NotEmpty(t, token)
	require.Equal(t, token, m.Token(sess))
	require.NotEqual(t, token, m.Token(&Session{ID: "session-b"}))
}

func TestCSRFValidate(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "session-a"}

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	require.ErrorIs(t, m.Validate(req, sess), ErrCSRFTokenMissing)

	req.Header.Set(CSRFHeader, "bogus")
	require.ErrorIs(t, m.Validate(req, sess), ErrCSRFTokenMismatch)

	req.Header.Set(CSRFHeader, m.Token(sess))
	require.NoError(t, m.Validate(req, sess))

	// A token minted under a different secret never validates.
	other := NewCSRFManager("rotated-secret")
	req.Header.Set(CSRFHeader, other.Token(sess))
	require.ErrorIs(t, m.Validate(req, sess), ErrCSRFTokenMismatch)
}
