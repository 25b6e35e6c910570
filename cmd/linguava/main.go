// Linguava backend: auth-routed web app with a language-learning dashboard
// and the in-game AI tutor WebSocket gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/linguava/linguava/internal/auth"
	"github.com/linguava/linguava/internal/catalog"
	"github.com/linguava/linguava/internal/learning"
	"github.com/linguava/linguava/internal/server"
	"github.com/linguava/linguava/internal/tutor"
	"github.com/linguava/linguava/pkg/config"
	"github.com/linguava/linguava/pkg/cookie"
	"github.com/linguava/linguava/pkg/email"
	"github.com/linguava/linguava/pkg/environment"
	"github.com/linguava/linguava/pkg/httpserver"
	"github.com/linguava/linguava/pkg/logger"
	"github.com/linguava/linguava/pkg/pg"
	"github.com/linguava/linguava/pkg/redis"
	"github.com/linguava/linguava/pkg/requestid"
	"github.com/linguava/linguava/pkg/session"
)

type appConfig struct {
	Environment  string        `env:"ENVIRONMENT" envDefault:"development"`
	TutorTimeout time.Duration `env:"TUTOR_RESPONSE_TIMEOUT" envDefault:"30s"`

	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redis.Config
	Cookie  cookie.Config
	Session session.Config
	Email   email.Config
	Auth    auth.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("linguava exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	env := environment.Parse(cfg.Environment)

	log := logger.New(
		logger.WithEnvironment(env, "linguava"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	// Storage.
	db, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if err := pg.Migrate(ctx, db, cfg.PG, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	// Language catalog, validated and seeded before anything serves.
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load language catalog: %w", err)
	}
	if err := catalog.Seed(ctx, db, cat); err != nil {
		return fmt.Errorf("seed language catalog: %w", err)
	}

	// Sessions ride in an encrypted cookie backed by Redis.
	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return fmt.Errorf("cookie manager: %w", err)
	}
	sessions := session.NewManager(
		session.WithStore(session.NewRedisStore(rdb)),
		session.WithTransport(session.NewCookieTransport(cookies, cfg.Session.CookieName, cfg.Session.SecureCookies)),
		session.WithConfig(cfg.Session),
	)

	mailer, err := newMailer(cfg.Email, env, log)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	var providers []auth.ProviderAdapter
	if cfg.Auth.GoogleClientID != "" {
		providers = append(providers, auth.NewGoogleAdapter(
			cfg.Auth.GoogleClientID,
			cfg.Auth.GoogleClientSecret,
			cfg.Auth.BaseURL+"/auth/callback?provider=google",
		))
	}
	authSvc, err := auth.NewService(cfg.Auth, auth.NewPGStore(db), auth.NewRedisNonceStore(rdb), mailer, log, providers...)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	learningSvc := learning.NewService(learning.NewPGStore(db), cat, log)

	router := server.NewRouter(server.Deps{
		Env:      env,
		Log:      log,
		Sessions: sessions,
		Auth:     auth.NewHandler(authSvc, sessions, cookies, log),
		Catalog:  catalog.NewHandler(cat),
		Learning: learning.NewHandler(learningSvc, log),
		Tutor:    tutor.NewGateway(tutor.NewDevResponder(), log, cfg.TutorTimeout),
		HealthChecks: []func(context.Context) error{
			pg.Healthcheck(db),
			redis.Healthcheck(rdb),
		},
	})

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	log.InfoContext(ctx, "starting linguava",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("env", string(env)))
	return srv.Run(ctx, router)
}

// newMailer picks delivery per environment: Postmark when a server token is
// configured, the file-backed outbox otherwise. Production refuses to start
// without real delivery.
func newMailer(cfg email.Config, env environment.Environment, log *slog.Logger) (email.Sender, error) {
	if cfg.PostmarkServerToken != "" {
		return email.NewPostmarkClient(cfg)
	}
	if env == environment.Production {
		return nil, fmt.Errorf("postmark is required in production")
	}
	log.Warn("postmark not configured, writing emails to dev outbox", slog.String("dir", cfg.DevOutboxDir))
	return email.NewDevSender(cfg.DevOutboxDir), nil
}
