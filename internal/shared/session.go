package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// SessionManager orchestrates cookie based sessions backed by Redis. Cookie
// values carry the session ID plus an HMAC over it, so a forged or tampered
// cookie is rejected before Redis is consulted.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data. The actor snapshot is written once
// at login and stays immutable until logout; capability changes take effect
// on the next session, never mid-session.
type Session struct {
	ID        string
	actor     authz.Actor
	hasActor  bool
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	UserID       int64    `json:"user_id"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
	HasActor     bool     `json:"has_actor"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	id, ok := sm.verifyCookie(cookie.Value)
	if !ok {
		return sm.newSession(), nil
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = id
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := &Session{ID: id}
	if stored.HasActor {
		caps := make([]authz.Capability, 0, len(stored.Capabilities))
		for _, c := range stored.Capabilities {
			caps = append(caps, authz.Capability(c))
		}
		sess.actor = authz.Actor{UserID: stored.UserID, Role: stored.Role, Capabilities: caps}
		sess.hasActor = true
	}
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty || sess.isNew {
		caps := make([]string, 0, len(sess.actor.Capabilities))
		for _, c := range sess.actor.Capabilities {
			caps = append(caps, string(c))
		}
		payload := sessionPayload{
			UserID:       sess.actor.UserID,
			Role:         sess.actor.Role,
			Capabilities: caps,
			HasActor:     sess.hasActor,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
	}

	if sess.ID != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    sm.signCookie(sess.ID),
			Path:     "/",
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(sm.ttl),
		})
	}

	return nil
}

// Destroy marks the session for deletion.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// SetActor snapshots the authenticated actor into the session. Called once
// at login.
func (s *Session) SetActor(actor authz.Actor) {
	s.actor = actor
	s.hasActor = true
	s.dirty = true
}

// Actor returns the session's actor snapshot.
func (s *Session) Actor() (authz.Actor, bool) {
	if s == nil || !s.hasActor {
		return authz.Actor{}, false
	}
	return s.actor, true
}

// Authenticated reports whether an actor is attached.
func (s *Session) Authenticated() bool {
	return s != nil && s.hasActor
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:    sm.generateSessionID(),
		isNew: true,
		dirty: true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// signCookie appends the keyed HMAC of the session ID. Neither uuid IDs nor
// the base64 fallback contain a dot, so the separator is unambiguous.
func (sm *SessionManager) signCookie(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (sm *SessionManager) verifyCookie(value string) (string, bool) {
	id, _, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(value), []byte(sm.signCookie(id))) {
		return "", false
	}
	return id, true
}
