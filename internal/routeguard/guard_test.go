package routeguard_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguava/linguava/internal/routeguard"
	"github.com/linguava/linguava/pkg/session"
)

func validLookup() routeguard.Lookup {
	userID := uuid.New()
	return routeguard.ValidLookup(session.New("tok", &userID, "learner@example.com", time.Hour))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want routeguard.Class
	}{
		{"/login", routeguard.ClassAuthPage},
		{"/login/magic", routeguard.ClassAuthPage},
		{"/auth", routeguard.ClassAuthPage},
		{"/auth/google", routeguard.ClassAuthPage},
		{"/auth/callback", routeguard.ClassOther},
		{"/auth/callback/google", routeguard.ClassOther},
		{"/dashboard", routeguard.ClassProtected},
		{"/dashboard/languages", routeguard.ClassProtected},
		{"/", routeguard.ClassOther},
		{"/about", routeguard.ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, routeguard.Classify(tt.path))
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	t.Run("anonymous on protected area redirects to login with intent", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/dashboard", "/dashboard/languages", "/dashboard/settings/profile"} {
			d := routeguard.Evaluate(path, url.Values{}, routeguard.AbsentLookup())
			require.True(t, d.Redirect, "path %s", path)
			assert.Equal(t, "/login", d.Location)
			assert.Equal(t, path, d.Query.Get("redirectTo"))
		}
	})

	t.Run("authenticated on auth page redirects to dashboard", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/login", "/auth", "/auth/google", "/login/magic"} {
			d := routeguard.Evaluate(path, url.Values{}, validLookup())
			require.True(t, d.Redirect, "path %s", path)
			assert.Equal(t, "/dashboard", d.Location)
			assert.Empty(t, d.Query)
		}
	})

	t.Run("authenticated on callback continues", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/auth/callback", url.Values{"code": {"abc"}}, validLookup())
		assert.False(t, d.Redirect)
	})

	t.Run("redirect intent consumed once", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/", url.Values{"redirectTo": {"/dashboard/settings"}}, validLookup())
		require.True(t, d.Redirect)
		assert.Equal(t, "/dashboard/settings", d.Location)
		assert.Empty(t, d.Query.Get("redirectTo"))
		assert.Equal(t, "/dashboard/settings", d.Target())
	})

	t.Run("redirect intent keeps other query params", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/", url.Values{"redirectTo": {"/dashboard"}, "utm": {"email"}}, validLookup())
		require.True(t, d.Redirect)
		assert.Equal(t, "/dashboard", d.Location)
		assert.Equal(t, "email", d.Query.Get("utm"))
	})

	t.Run("off-site redirect intent rejected", func(t *testing.T) {
		t.Parallel()

		for _, target := range []string{"https://evil.example", "//evil.example", "evil", ""} {
			d := routeguard.Evaluate("/", url.Values{"redirectTo": {target}}, validLookup())
			assert.False(t, d.Redirect, "target %q", target)
		}
	})

	t.Run("redirect intent ignored without valid session", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/", url.Values{"redirectTo": {"/dashboard"}}, routeguard.AbsentLookup())
		assert.False(t, d.Redirect)
	})

	t.Run("lookup failure on protected area redirects with error code", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/dashboard", url.Values{}, routeguard.FailedLookup(errors.New("network")))
		require.True(t, d.Redirect)
		assert.Equal(t, "/login", d.Location)
		assert.Equal(t, "session_error", d.Query.Get("error"))
	})

	t.Run("lookup failure on auth page continues", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/login", url.Values{}, routeguard.FailedLookup(errors.New("network")))
		assert.False(t, d.Redirect)
	})

	t.Run("lookup failure takes precedence over redirect intent", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/", url.Values{"redirectTo": {"/dashboard"}}, routeguard.FailedLookup(errors.New("boom")))
		require.True(t, d.Redirect)
		assert.Equal(t, "/login", d.Location)
		assert.Equal(t, "session_error", d.Query.Get("error"))
	})

	t.Run("callback with absent session never bounces to login", func(t *testing.T) {
		t.Parallel()

		d := routeguard.Evaluate("/auth/callback", url.Values{"code": {"abc"}}, routeguard.AbsentLookup())
		assert.False(t, d.Redirect)
	})

	t.Run("anonymous elsewhere continues", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/", "/about", "/login"} {
			d := routeguard.Evaluate(path, url.Values{}, routeguard.AbsentLookup())
			assert.False(t, d.Redirect, "path %s", path)
		}
	})

	t.Run("idempotent continue", func(t *testing.T) {
		t.Parallel()

		// Re-evaluating a Continue with unchanged inputs must yield Continue
		// again: no oscillation between decisions.
		query := url.Values{}
		lookup := validLookup()

		first := routeguard.Evaluate("/dashboard", query, lookup)
		require.False(t, first.Redirect)
		second := routeguard.Evaluate("/dashboard", query, lookup)
		assert.Equal(t, first, second)
	})
}

func TestDecisionTarget(t *testing.T) {
	t.Parallel()

	d := routeguard.RedirectTo("/login", url.Values{"redirectTo": {"/dashboard"}})
	assert.Equal(t, "/login?redirectTo=%2Fdashboard", d.Target())

	d = routeguard.RedirectTo("/dashboard", url.Values{})
	assert.Equal(t, "/dashboard", d.Target())
}
