package main

import (
	"context"
	"flag"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"bookcatalog/internal/config"
	"bookcatalog/internal/logging"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err := run(context.Background(), cfg.Database.DSN, *command, *name); err != nil {
		logging.Fatal().Err(err).Str("command", *command).Msg("migration failed")
	}
}

func run(ctx context.Context, dsn, command, name string) error {
	fsys, dir := migrationSource()

	if command == "create" {
		if name == "" {
			logging.Error().Msg("name is required for 'create' command")
			os.Exit(2)
		}
		if fsys != nil {
			dir = "db/migrations"
		}
		if err := goose.Create(nil, dir, name, "sql"); err != nil {
			return err
		}
		logging.Info().Str("name", name).Str("dir", dir).Msg("migration created")
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
			return err
		}
		logging.Info().Msg("migrations applied")
	case "down":
		if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
			return err
		}
		logging.Info().Msg("last migration rolled back")
	case "status":
		return goose.StatusContext(ctx, sqlDB, dir)
	case "version":
		return goose.VersionContext(ctx, sqlDB, dir)
	default:
		logging.Error().Str("command", command).Msg("unknown command, use: up, down, status, version, create")
		os.Exit(2)
	}
	return nil
}
