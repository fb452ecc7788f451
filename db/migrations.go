// Package db carries the schema migrations and applies them with goose.
package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrations holds the SQL files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Dir is the migrations directory inside Migrations.
const Dir = "migrations"

// Up applies every pending embedded migration.
func Up(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, Dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
