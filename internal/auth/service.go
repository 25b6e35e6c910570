package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linguava/linguava/pkg/email"
	"github.com/linguava/linguava/pkg/logger"
	"github.com/linguava/linguava/pkg/token"
)

// Config holds sign-in settings loaded from the environment.
type Config struct {
	BaseURL            string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	MagicLinkSecret    string        `env:"MAGIC_LINK_SECRET,required"`
	MagicLinkTTL       time.Duration `env:"MAGIC_LINK_TTL" envDefault:"15m"`
	MinPasswordLength  int           `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
}

// magicClaims is the payload of an emailed sign-in code.
type magicClaims struct {
	Email     string    `json:"e"`
	Nonce     string    `json:"n"`
	ExpiresAt time.Time `json:"x"`
}

// Service implements account registration and the three sign-in flows.
// It resolves a *User; session issuance is the handler's job.
type Service struct {
	cfg       Config
	users     Store
	nonces    NonceStore
	mailer    email.Sender
	providers map[string]ProviderAdapter
	log       *slog.Logger

	// lastMagicLink backs the development QR endpoint so a phone can scan
	// the most recent link instead of digging through the outbox.
	mu            sync.Mutex
	lastMagicLink string
}

// NewService validates its dependencies and returns a ready Service.
func NewService(cfg Config, users Store, nonces NonceStore, mailer email.Sender, log *slog.Logger, providers ...ProviderAdapter) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: store is required")
	}
	if nonces == nil {
		return nil, errors.New("auth: nonce store is required")
	}
	if mailer == nil {
		return nil, errors.New("auth: mailer is required")
	}
	if cfg.MagicLinkSecret == "" {
		return nil, errors.New("auth: magic link secret is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		cfg:       cfg,
		users:     users,
		nonces:    nonces,
		mailer:    mailer,
		providers: make(map[string]ProviderAdapter, len(providers)),
		log:       log.With(slog.String("component", "auth")),
	}
	for _, p := range providers {
		s.providers[p.ProviderID()] = p
	}
	return s, nil
}

// Register creates a password account. The email must be unused.
func (s *Service) Register(ctx context.Context, emailAddr, name, password string) (*User, error) {
	if len(password) < s.cfg.MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, emailAddr, name, hash)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Join(ErrFailedToCreateUser, err)
	}
	s.log.InfoContext(ctx, "user registered", logger.UserID(u.ID.String()))
	return u, nil
}

// Login verifies a password against the stored bcrypt hash. It returns
// ErrInvalidCredentials for both unknown emails and wrong passwords so
// callers cannot probe which emails exist.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*User, error) {
	u, err := s.users.UserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if len(u.PasswordHash) == 0 {
		return nil, ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// RequestMagicLink emails a signed single-use sign-in link. Unknown emails
// get a link too; the account is created lazily in ExchangeCode.
func (s *Service) RequestMagicLink(ctx context.Context, emailAddr string) error {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	code, err := token.Generate(magicClaims{
		Email:     normalizeEmail(emailAddr),
		Nonce:     hex.EncodeToString(nonce),
		ExpiresAt: time.Now().Add(s.cfg.MagicLinkTTL),
	}, s.cfg.MagicLinkSecret)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	link := s.cfg.BaseURL + "/auth/callback?code=" + url.QueryEscape(code)
	s.mu.Lock()
	s.lastMagicLink = link
	s.mu.Unlock()

	return s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   emailAddr,
		Subject:  "Your Linguava sign-in link",
		BodyHTML: fmt.Sprintf(`<p>Tap the link below to sign in. It expires in %s.</p><p><a href="%s">Sign in to Linguava</a></p>`, s.cfg.MagicLinkTTL, link),
		Tag:      "magic-link",
	})
}

// LastMagicLink returns the most recently issued link, for the development
// QR endpoint only.
func (s *Service) LastMagicLink() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMagicLink
}

// ExchangeCode verifies an emailed code and resolves it to a user,
// creating the account on first sign-in. Codes are single-use: the nonce
// is consumed before any account work happens.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*User, error) {
	claims, err := token.Parse[magicClaims](code, s.cfg.MagicLinkSecret)
	if err != nil {
		return nil, ErrCodeInvalid
	}
	if time.Now().After(claims.ExpiresAt) {
		return nil, ErrCodeExpired
	}
	if err := s.nonces.Consume(ctx, claims.Nonce, time.Until(claims.ExpiresAt)); err != nil {
		return nil, err
	}
	return s.findOrCreateUser(ctx, claims.Email, "")
}

// BeginOAuth returns the provider consent URL for the given state.
func (s *Service) BeginOAuth(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.AuthURL(state), nil
}

// CompleteOAuth exchanges the provider code for a profile and resolves it
// to a user, linking the identity so later sign-ins match directly.
func (s *Service) CompleteOAuth(ctx context.Context, provider, code string) (*User, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	profile, err := p.ResolveProfile(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve %s profile: %w", provider, err)
	}

	if u, err := s.users.UserByIdentity(ctx, provider, profile.ProviderUserID); err == nil {
		return u, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	u, err := s.findOrCreateUser(ctx, profile.Email, profile.Name)
	if err != nil {
		return nil, err
	}
	if err := s.users.LinkIdentity(ctx, u.ID, provider, profile.ProviderUserID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) findOrCreateUser(ctx context.Context, emailAddr, name string) (*User, error) {
	u, err := s.users.UserByEmail(ctx, emailAddr)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	u, err = s.users.CreateUser(ctx, emailAddr, name, nil)
	if err != nil {
		// Lost a race with a concurrent first sign-in; read back the winner.
		if errors.Is(err, ErrEmailTaken) {
			return s.users.UserByEmail(ctx, emailAddr)
		}
		return nil, errors.Join(ErrFailedToCreateUser, err)
	}
	s.log.InfoContext(ctx, "user created on first sign-in", logger.UserID(u.ID.String()))
	return u, nil
}
