// Command tasknestd runs the HTTP backend: it applies database migrations,
// wires the auth engine to Postgres and Redis, and serves the web routes.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest"
	"github.com/tasknest/tasknest/credential"
	"github.com/tasknest/tasknest/migrations"
	"github.com/tasknest/tasknest/web"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}

	if err := runMigrations(ctx, cfg.databaseURL); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	pool, err := pgxpool.New(ctx, cfg.databaseURL)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.redisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}

	engineCfg := tasknest.DefaultConfig()
	engineCfg.Password.Cost = cfg.bcryptCost
	engineCfg.Session.TTL = cfg.sessionTTL

	engine, err := tasknest.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithUsers(credential.NewStore(pool)).
		WithAuditSink(tasknest.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		return fmt.Errorf("engine build: %w", err)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           web.NewServer(engine, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runMigrations applies the embedded schema migrations through the stdlib
// pgx driver, then releases the connection; request traffic goes through
// pgxpool.
func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

type envConfig struct {
	port        string
	databaseURL string
	redisAddr   string
	bcryptCost  int
	sessionTTL  time.Duration
}

func configFromEnv() (envConfig, error) {
	cfg := envConfig{
		port:        envOr("PORT", "3000"),
		databaseURL: os.Getenv("DATABASE_URL"),
		redisAddr:   envOr("REDIS_ADDR", "localhost:6379"),
		bcryptCost:  tasknest.DefaultConfig().Password.Cost,
		sessionTTL:  tasknest.DefaultConfig().Session.TTL,
	}

	if cfg.databaseURL == "" {
		return envConfig{}, errors.New("DATABASE_URL is required")
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return envConfig{}, fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.bcryptCost = cost
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return envConfig{}, fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.sessionTTL = ttl
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
