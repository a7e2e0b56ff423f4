package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"pet-adoption/internal/adapters/auth/jwt"
	"pet-adoption/internal/adapters/cache/rediscache"
	"pet-adoption/internal/adapters/crypto/bcrypt"
	"pet-adoption/internal/adapters/notify/mailer"
	pg "pet-adoption/internal/adapters/storage/postgres"
	"pet-adoption/internal/config"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/notify"
	"pet-adoption/internal/router"
	"pet-adoption/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("config error", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	if err := run(cfg, log); err != nil {
		log.Error("server error", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Log:           log,
		Hasher:        bcrypt.New(bcrypt.DefaultCost),
		CORSOrigins:   cfg.AllowedOrigins(),
		AuthRateLimit: float64(cfg.AuthRateLimit),
		AuthRateBurst: cfg.AuthRateBurst,
		ResetTTL:      cfg.ResetTokenTTL,
	}

	// Auth: sin JWT_SECRET queda el modo dev por headers X-Debug-*.
	if cfg.JWTSecret != "" {
		tokens, err := jwt.New(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)
		if err != nil {
			return err
		}
		opts.AuthVerifier = tokens
		opts.TokenIssuer = tokens
	} else {
		log.Warn("JWT_SECRET not set, running in dev auth mode (X-Debug-User-ID)", nil)
	}

	// Storage
	var db *sql.DB
	if cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return err
		}
		db = opened
		defer db.Close()

		if err := pg.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("postgres ready", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}
	opts.DB = db

	// Cache del catálogo
	if cfg.RedisURL != "" {
		client, err := rediscache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, pet cache disabled", map[string]any{"err": err})
		} else {
			defer client.Close()
			opts.PetCache = rediscache.NewPetCache(client, cfg.PetCacheTTL)
		}
	}

	opts.Notifier = newNotifier(cfg, log)

	app := router.Build(opts)

	if cfg.AdminEmail != "" {
		if _, err := app.Users.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	reconciler, err := worker.NewReconciler(app.Applications, cfg.ReconcileSchedule, log)
	if err != nil {
		return err
	}
	reconciler.Start()

	stopCleanup := make(chan struct{})
	app.RateLimiter.StartCleanup(time.Minute, stopCleanup)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	close(stopCleanup)
	reconciler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func newNotifier(cfg config.Config, log logger.Logger) notify.Notifier {
	if !cfg.SMTPConfigured() {
		log.Warn("SMTP not configured, emails will only be logged", nil)
		return mailer.NewLog(log)
	}
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		log.Warn("invalid SMTP_PORT, emails will only be logged", map[string]any{"port": cfg.SMTPPort})
		return mailer.NewLog(log)
	}
	n, err := mailer.NewSMTP(mailer.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        port,
		User:        cfg.SMTPUser,
		Password:    cfg.SMTPPassword,
		From:        cfg.SMTPFrom,
		App:         cfg.AppName,
		FrontendURL: cfg.FrontendURL,
		ResetTTL:    cfg.ResetTokenTTL,
	})
	if err != nil {
		log.Warn("invalid SMTP config, emails will only be logged", map[string]any{"err": err})
		return mailer.NewLog(log)
	}
	return n
}

var (
	_ auth.AuthVerifier = (*jwt.Manager)(nil)
	_ auth.TokenIssuer  = (*jwt.Manager)(nil)
	_ pets.Cache        = (*rediscache.PetCache)(nil)
)
