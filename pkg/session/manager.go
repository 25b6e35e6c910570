package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Manager handles session lifecycle against a Store and Transport.
type Manager struct {
	store     Store
	transport Transport
	config    Config
}

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets the session store.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithTransport sets the session transport.
func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

// WithConfig sets the session configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) { m.config = config }
}

// NewManager creates a session manager. Store and Transport are required;
// missing either is a programming error and fails fast.
func NewManager(opts ...Option) *Manager {
	m := &Manager{config: DefaultConfig()}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		panic("session: store is required")
	}
	if m.transport == nil {
		panic("session: transport is required")
	}
	return m
}

// Get retrieves the request's session. Expired sessions are deleted from the
// store and reported as expired. Activity is touched at most once per
// TouchInterval.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		_ = m.store.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if time.Since(session.LastActivityAt) >= m.config.TouchInterval {
		session.Touch()
		// Best effort: a lost activity write only shortens the idle window.
		_ = m.store.Update(ctx, session)
	}

	return session, nil
}

// Authenticate issues an authenticated session for the user, rotating the
// token so a pre-auth token can never be replayed as an authenticated one.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID, email string) (*Session, error) {
	if old, err := m.transport.GetToken(r); err == nil && old != "" {
		_ = m.store.Delete(ctx, old)
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	idle, max := m.config.Timeouts(true)
	session := New(token, &userID, email, minDuration(idle, max))
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, token, idle); err != nil {
		_ = m.store.Delete(ctx, token)
		return nil, err
	}

	return session, nil
}

// Destroy deletes the session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token, err := m.transport.GetToken(r); err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}
	m.transport.ClearToken(w)
	return nil
}

// Refresh extends the session expiry within its max lifetime.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	session, err := m.Get(ctx, r)
	if err != nil {
		return err
	}

	idle, max := m.config.Timeouts(session.IsAuthenticated())
	session.ExpiresAt = nextExpiry(session.CreatedAt, idle, max)
	session.Touch()

	if err := m.store.Update(ctx, session); err != nil {
		return err
	}
	return m.transport.SetToken(w, session.Token, idle)
}

// RevokeUser invalidates every session of the given user.
func (m *Manager) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteByUserID(ctx, userID.String())
}

// nextExpiry returns the sooner of idle expiry and max lifetime.
func nextExpiry(createdAt time.Time, idle, max time.Duration) time.Time {
	idleExpiry := time.Now().Add(idle)
	maxExpiry := createdAt.Add(max)
	if maxExpiry.Before(idleExpiry) {
		return maxExpiry
	}
	return idleExpiry
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// generateToken creates a cryptographically secure 256-bit token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
