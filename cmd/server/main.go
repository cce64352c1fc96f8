package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"netnest/backend/internal/activity"
	activityrepo "netnest/backend/internal/activity/repository"
	"netnest/backend/internal/config"
	"netnest/backend/internal/db"
	"netnest/backend/internal/devicesession"
	sessionrepo "netnest/backend/internal/devicesession/repository"
	"netnest/backend/internal/enrollment"
	"netnest/backend/internal/logging"
	"netnest/backend/internal/login"
	"netnest/backend/internal/notify"
	"netnest/backend/internal/provider"
	"netnest/backend/internal/provider/gotrue"
	"netnest/backend/internal/provider/local"
	"netnest/backend/internal/recovery"
	recoveryrepo "netnest/backend/internal/recovery/repository"
	"netnest/backend/internal/roles"
	rolesrepo "netnest/backend/internal/roles/repository"
	"netnest/backend/internal/security"
	"netnest/backend/internal/server"
	"netnest/backend/internal/telemetry"
	"netnest/backend/internal/trust"
	trustrepo "netnest/backend/internal/trust/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	tp, err := telemetry.NewProvider(ctx, cfg.OTLPEndpoint, "netnest-auth", false)
	if err != nil {
		logger.Fatal("telemetry", zap.Error(err))
	}
	tp.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	var idp provider.Client
	if cfg.AuthProviderURL != "" {
		idp = gotrue.NewClient(cfg.AuthProviderURL, cfg.AuthAnonKey, cfg.AuthServiceKey)
	} else {
		logger.Warn("AUTH_PROVIDER_URL not set; using the in-process identity provider (development only)")
		idp = local.New([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())
	}

	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())

	recorder := activity.NewLogger(activityrepo.NewPostgresRepository(conn), logger, server.UserAgent)
	store := server.CookieStore{}

	trustSvc := trust.NewService(trustrepo.NewPostgresRepository(conn), store, recorder)
	recoverySvc := recovery.NewService(recoveryrepo.NewPostgresRepository(conn), recorder)
	sessionSvc := devicesession.NewService(sessionrepo.NewPostgresRepository(conn), store, recorder)
	loginSvc := login.NewService(idp, trustSvc, recoverySvc, recorder)
	enrollSvc := enrollment.NewService(idp, recorder)
	rolesSvc := roles.NewService(rolesrepo.NewPostgresRepository(conn), recorder)

	var dispatcher *notify.Dispatcher
	if cfg.BulkSMSAPIKey != "" {
		sms := notify.NewBulkSMSClient(cfg.BulkSMSAPIKey, cfg.BulkSMSSenderID, cfg.BulkSMSBaseURL)
		dispatcher = notify.NewDispatcher(sms, logger)
	}

	handler := server.New(server.Deps{
		Login:          loginSvc,
		Enrollment:     enrollSvc,
		Recovery:       recoverySvc,
		Trust:          trustSvc,
		Sessions:       sessionSvc,
		Activity:       activity.NewService(activityrepo.NewPostgresRepository(conn)),
		Recorder:       recorder,
		Roles:          rolesSvc,
		Provider:       idp,
		Tokens:         tokens,
		DB:             conn,
		Log:            logger,
		Notify:         dispatcher,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
}
