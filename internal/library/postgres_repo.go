package library

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookcatalog/internal/metrics"
)

const listSQL = `SELECT id, name, address, latitude, longitude FROM libraries ORDER BY id`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) List(ctx context.Context) ([]Library, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DBQueryDuration.WithLabelValues("list_libraries").Observe(time.Since(start).Seconds())
	}()

	rows, err := r.db.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	libs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Library])
	if err != nil {
		return nil, fmt.Errorf("scan libraries: %w", err)
	}
	return libs, nil
}
