package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguava/linguava/pkg/cookie"
	"github.com/linguava/linguava/pkg/session"
)

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()

	cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	return session.NewManager(
		session.WithStore(session.NewMemoryStore()),
		session.WithTransport(session.NewCookieTransport(cookies, "sid", false)),
		session.WithConfig(session.DefaultConfig()),
	)
}

func carryCookies(w *httptest.ResponseRecorder, path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestManagerAuthenticate(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	ctx := context.Background()
	userID := uuid.New()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/password/login", nil)

	created, err := manager.Authenticate(ctx, w, r, userID, "learner@example.com")
	require.NoError(t, err)
	require.True(t, created.IsAuthenticated())
	assert.Equal(t, userID, *created.UserID)
	assert.Equal(t, "learner@example.com", created.Email)

	got, err := manager.Get(ctx, carryCookies(w, "/dashboard"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.IsAuthenticated())
}

func TestManagerTokenRotation(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	ctx := context.Background()

	w1 := httptest.NewRecorder()
	first, err := manager.Authenticate(ctx, w1, httptest.NewRequest(http.MethodPost, "/", nil), uuid.New(), "a@example.com")
	require.NoError(t, err)

	// Re-authenticating with the first session's cookie must rotate the token
	// and invalidate the old one.
	w2 := httptest.NewRecorder()
	second, err := manager.Authenticate(ctx, w2, carryCookies(w1, "/"), uuid.New(), "b@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	_, err = manager.Get(ctx, carryCookies(w1, "/"))
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManagerDestroy(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	ctx := context.Background()

	w1 := httptest.NewRecorder()
	_, err := manager.Authenticate(ctx, w1, httptest.NewRequest(http.MethodPost, "/", nil), uuid.New(), "a@example.com")
	require.NoError(t, err)

	w2 := httptest.NewRecorder()
	require.NoError(t, manager.Destroy(ctx, w2, carryCookies(w1, "/")))

	_, err = manager.Get(ctx, carryCookies(w1, "/"))
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	// The response must clear the cookie.
	var cleared bool
	for _, c := range w2.Result().Cookies() {
		if c.Name == "sid" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestManagerGet(t *testing.T) {
	t.Parallel()

	t.Run("no cookie", func(t *testing.T) {
		t.Parallel()
		manager := newTestManager(t)

		_, err := manager.Get(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("expired session removed", func(t *testing.T) {
		t.Parallel()

		cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
		require.NoError(t, err)
		store := session.NewMemoryStore()
		manager := session.NewManager(
			session.WithStore(store),
			session.WithTransport(session.NewCookieTransport(cookies, "sid", false)),
		)

		ctx := context.Background()
		w := httptest.NewRecorder()
		created, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), uuid.New(), "a@example.com")
		require.NoError(t, err)

		created.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, store.Update(ctx, created))

		_, err = manager.Get(ctx, carryCookies(w, "/"))
		assert.ErrorIs(t, err, session.ErrSessionExpired)

		// A second read misses entirely: the expired row was deleted.
		_, err = store.Get(ctx, created.Token)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestMemoryStoreDeleteByUserID(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	for _, token := range []string{"t1", "t2"} {
		require.NoError(t, store.Create(ctx, session.New(token, &userID, "a@example.com", time.Hour)))
	}
	other := uuid.New()
	require.NoError(t, store.Create(ctx, session.New("t3", &other, "b@example.com", time.Hour)))

	require.NoError(t, store.DeleteByUserID(ctx, userID.String()))

	_, err := store.Get(ctx, "t1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = store.Get(ctx, "t2")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = store.Get(ctx, "t3")
	assert.NoError(t, err)
}
