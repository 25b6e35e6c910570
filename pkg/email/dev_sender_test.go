package email_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguava/linguava/pkg/email"
)

func TestDevSender(t *testing.T) {
	t.Parallel()

	t.Run("writes email to outbox", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(filepath.Join(dir, "outbox"))

		err := sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "learner@example.com",
			Subject:  "Your sign-in link",
			BodyHTML: "<a href=\"https://linguava.app/auth/callback?code=abc\">Sign in</a>",
			Tag:      "magic-link",
		})
		require.NoError(t, err)

		entries, err := os.ReadDir(filepath.Join(dir, "outbox"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Name(), "magic-link")

		body, err := os.ReadFile(filepath.Join(dir, "outbox", entries[0].Name()))
		require.NoError(t, err)
		assert.Contains(t, string(body), "learner@example.com")
		assert.Contains(t, string(body), "auth/callback?code=abc")
	})

	t.Run("rejects invalid recipient", func(t *testing.T) {
		t.Parallel()

		sender := email.NewDevSender(t.TempDir())
		err := sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "not-an-email",
			Subject:  "s",
			BodyHTML: "b",
		})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}
