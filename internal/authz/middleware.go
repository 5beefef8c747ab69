package authz

import (
	"net/http"

	"log/slog"
)

// Middleware wires route-level capability checks for HTTP handlers. Per-row
// action availability is handled by the lifecycle tables instead; this only
// guards whole routes against direct calls.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current actor holds at least one of the capabilities.
func (m Middleware) RequireAny(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			store := StoreFromContext(r.Context())
			if store.HasAny(caps...) {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, r)
		})
	}
}

// RequireAll ensures the current actor holds every one of the capabilities.
func (m Middleware) RequireAll(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			store := StoreFromContext(r.Context())
			if store.HasAll(caps...) {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if m.Logger != nil {
		m.Logger.Debug("capability denied", slog.String("path", r.URL.Path))
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
