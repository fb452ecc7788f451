package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/library"
	"bookcatalog/internal/logging"
	"bookcatalog/internal/platform/openlibrary"
	"bookcatalog/internal/platform/recommender"
	"bookcatalog/internal/server"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("server error")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	dbPool, err := openDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	olClient := openlibrary.NewClient(openlibrary.Config{
		BaseURL:    cfg.OpenLibrary.BaseURL,
		CoversURL:  cfg.OpenLibrary.CoversURL,
		UserAgent:  cfg.OpenLibrary.UserAgent,
		Timeout:    cfg.OpenLibrary.Timeout,
		RPS:        cfg.OpenLibrary.RPS,
		MaxRetries: cfg.OpenLibrary.MaxRetries,
	})
	recClient := recommender.NewClient(cfg.Recommender.URL, cfg.Recommender.Timeout)

	bookService := book.NewService(
		book.NewPostgresRepo(dbPool, cfg.Database.QueryTimeout),
		olClient,
		recClient,
		book.Config{Concurrency: cfg.OpenLibrary.Concurrency, CallTimeout: cfg.OpenLibrary.Timeout},
	)
	libraryService := library.NewService(library.NewPostgresRepo(dbPool, cfg.Database.QueryTimeout), recClient)

	router := server.NewRouter(server.Handlers{
		Books:     book.NewHTTPHandler(bookService, cfg.Server.MaxPageSize),
		Libraries: library.NewHTTPHandler(libraryService),
	}, dbPool, server.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		CORSOrigins:  cfg.Security.CORSOrigins,
		RateLimitRPM: cfg.Security.RateLimitRPM,
		EnableHSTS:   cfg.Security.EnableHSTS,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logging.Error().Str("dsn", redactDSN(cfg.DSN)).Msg("cannot ping database")
		return nil, err
	}
	logging.Info().Str("dsn", redactDSN(cfg.DSN)).Msg("database connection OK")
	return pool, nil
}

func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	return poolCfg, nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
