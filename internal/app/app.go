package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/featherfn/metagate/internal/config"
	"github.com/featherfn/metagate/internal/db"
	relayhttp "github.com/featherfn/metagate/internal/http"
	"github.com/featherfn/metagate/internal/identity"
	"github.com/featherfn/metagate/internal/invoke"
	"github.com/featherfn/metagate/internal/logging"
	"github.com/featherfn/metagate/internal/store"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the controller with database-backed stores.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	var entities store.EntityStore = store.NewGormEntityStore(conn)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		errPing := rdb.Ping(pingCtx).Err()
		cancel()
		if errPing != nil {
			log.WithError(errPing).Warn("redis unavailable, package cache disabled")
		} else {
			entities = store.NewCachedEntityStore(entities, rdb, cfg.Redis.PackageTTL.Std())
		}
	}

	subjects := store.NewGormSubjectStore(conn)
	activations := store.NewGormActivationStore(conn)
	client := invoke.NewClient(cfg.API.Host, cfg.API.Version, nil)
	systemCreds := identity.NewSystemCredentialSource(subjects, cfg.System.Namespace)

	engine := relayhttp.NewRouter(relayhttp.RouterConfig{
		APIPath:         cfg.API.Path,
		APIVersion:      cfg.API.Version,
		MetaPrefix:      cfg.Meta.Prefix,
		SystemNamespace: cfg.System.Namespace,
		JWTSecret:       cfg.Auth.JWTSecret,
		TokenExpiry:     cfg.Auth.TokenExpiry.Std(),
		Entities:        entities,
		Subjects:        subjects,
		Activations:     activations,
		Client:          client,
		SystemCreds:     systemCreds,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("server shutdown")
		}
	}()

	log.Infof("metagate listening on %s (meta prefix /%s/%s/%s, system namespace %s)",
		cfg.Server.Addr, cfg.API.Path, cfg.API.Version, cfg.Meta.Prefix, cfg.System.Namespace)
	if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		return fmt.Errorf("app: serve: %w", errServe)
	}
	return nil
}
