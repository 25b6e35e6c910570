package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DevSender writes emails to a local directory instead of sending them.
// Each message becomes an HTML file named after its timestamp and tag.
type DevSender struct {
	mu  sync.Mutex
	dir string
}

// NewDevSender creates a development sender; the directory is created on
// first use.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create outbox dir: %v", ErrFailedToSendEmail, err)
	}

	name := params.Tag
	if name == "" {
		name = params.Subject
	}
	filename := fmt.Sprintf("%s_%s.html", time.Now().Format("20060102_150405.000"), sanitizeFilename(name))

	body := fmt.Sprintf("<!-- to: %s subject: %s -->\n%s", params.SendTo, params.Subject, params.BodyHTML)
	if err := os.WriteFile(filepath.Join(d.dir, filename), []byte(body), 0o644); err != nil {
		return fmt.Errorf("%w: write email file: %v", ErrFailedToSendEmail, err)
	}

	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
