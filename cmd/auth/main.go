package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/phonehub/internal/config"
	"github.com/Skotchmaster/phonehub/internal/events"
	"github.com/Skotchmaster/phonehub/internal/httpserver"
	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/internal/service"
	"github.com/Skotchmaster/phonehub/internal/tokens"
	"github.com/Skotchmaster/phonehub/pkg/authclient"
	"github.com/Skotchmaster/phonehub/pkg/db"
	"github.com/Skotchmaster/phonehub/pkg/hash"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err == nil {
		err = repo.Migrate(gdb)
	}
	if err == nil {
		err = repo.New(gdb).EnsureRoles(initCtx, repo.DefaultRoles)
	}
	cancel()
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}

	ts, err := tokens.NewService(cfg.Tokens())
	if err != nil {
		logger.Error("token_service_init_failed", "error", err)
		os.Exit(1)
	}
	profile := ts.Profile()
	logger.Info("token_profile", "env", cfg.Environment, "access_ttl", profile.AccessTTL.String(), "refresh_ttl", profile.RefreshTTL.String())

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaAuthTopic)
		logger.Info("event_publisher", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAuthTopic)
	}

	store := repo.New(gdb)
	svc := service.New(service.Deps{
		Users:          store,
		Roles:          store,
		Hasher:         hash.Bcrypt{},
		Tokens:         ts,
		Provider:       authclient.NewClient(cfg.GoogleTokenInfoURL),
		Events:         publisher,
		DefaultRoleID:  cfg.DefaultRoleID,
		GoogleClientID: cfg.GoogleClientID,
	})

	e, table := httpserver.New(&httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: svc},
		UsersHandler: &httpserver.UsersHTTP{Users: store},
		RolesHandler: &httpserver.RolesHTTP{Roles: store},
		Tokens:       ts,
		Identities:   store,
		Ready:        func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
	})
	for _, ep := range table.PublicPatterns() {
		logger.Debug("public_route", "endpoint", ep.String())
	}

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		logger.Info("http_listen", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("echo_start_failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("event_publisher_close_failed", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
