// Package main is the entry point for the A to B API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pkordes/atob/internal/auth"
	"github.com/pkordes/atob/internal/config"
	"github.com/pkordes/atob/internal/handler"
	"github.com/pkordes/atob/internal/logging"
	"github.com/pkordes/atob/internal/mail"
	"github.com/pkordes/atob/internal/middleware"
	"github.com/pkordes/atob/internal/repo"
	"github.com/pkordes/atob/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// --- Logger -----------------------------------------------------------
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	if err := config.ApplyVaultSecrets(ctx, &cfg); err != nil {
		return err
	}
	if cfg.Vault.Enabled() {
		logger.Info("secrets loaded from vault", zap.String("mount", cfg.Vault.Mount), zap.String("path", cfg.Vault.Path))
	}

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	// --- Mail -------------------------------------------------------------
	sender, closeSender, err := mail.NewSender(cfg.Mail.Transport,
		mail.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUsername,
			Password: cfg.Mail.SMTPPassword,
		},
		mail.KafkaConfig{Brokers: cfg.Mail.KafkaBrokers, Topic: cfg.Mail.KafkaTopic},
		logger.Named("mail"),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSender(); err != nil {
			logger.Warn("close mail sender", zap.Error(err))
		}
	}()
	mailer, err := mail.NewMailer(sender, mail.Settings{
		NoReply: mail.Address{Name: cfg.Mail.NoReplyName, Email: cfg.Mail.NoReplyEmail},
		Support: mail.Address{Name: cfg.Mail.SupportName, Email: cfg.Mail.SupportEmail},
	})
	if err != nil {
		return err
	}
	logger.Info("mail transport ready", zap.String("transport", cfg.Mail.Transport))

	// --- Services ---------------------------------------------------------
	tokens, err := auth.NewTokens(auth.Config{
		Secret:    []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		AccessTTL: cfg.JWT.Duration,
	})
	if err != nil {
		return err
	}
	links := service.Links{
		ConfirmEmailURL:  cfg.Links.ConfirmEmailURL,
		ResetPasswordURL: cfg.Links.ResetPasswordURL,
	}

	repos := repo.NewRepos(pool)
	uow := repo.NewUnitOfWork(pool)
	tripSvc := service.NewTripService(repos, nil)
	srv := handler.NewServer(handler.Services{
		Auth:         service.NewAuthService(repos.Users, auth.Hasher{}, tokens, mailer, links, nil),
		Users:        service.NewUserService(repos.Users, tokens, mailer, links),
		Trips:        tripSvc,
		Steps:        service.NewStepService(repos, uow),
		Travels:      service.NewTravelService(repos, uow),
		Testimonials: service.NewTestimonialService(repos.Testimonials, nil),
		Export:       service.NewExportService(tripSvc),
	})

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID, RealIP, request logger, Recoverer, CORS,
	// body limit. The logger needs the request ID and must see recovered
	// panics as 500s.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewZapLogger(logger.Named("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srv.Routes(middleware.NewAuthenticator(tokens)))

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
