package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookcatalog/internal/metrics"
)

const listColumns = `id, title, COALESCE(author, ''), COALESCE(isbn, ''), publication_year,
		COALESCE(publisher, ''), library_id`

const popularSQL = `
	SELECT id, title, COALESCE(author, ''), COALESCE(isbn, ''), publication_year,
	       COALESCE(publisher, ''), library_id, num_pages, popularity
	FROM books
	ORDER BY popularity DESC NULLS LAST, id ASC
	LIMIT $1`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, error) {
	query, args := buildListQuery(q)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer observe("list", time.Now())

	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PublicationYear, &b.Publisher, &b.LibraryID); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Popular returns the limit most popular books. Ties keep table order.
func (r *PostgresRepo) Popular(ctx context.Context, limit int) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer observe("popular", time.Now())

	rows, err := r.db.Query(timeoutCtx, popularSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("popular books: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Book, error) {
		var b Book
		err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PublicationYear, &b.Publisher,
			&b.LibraryID, &b.NumPages, &b.Popularity)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan popular: %w", err)
	}
	return out, nil
}

func observe(operation string, start time.Time) {
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// buildListQuery renders q as SQL with positional arguments. User input only
// ever travels as a bound argument.
func buildListQuery(q Query) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Term != "" {
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE $%d OR author ILIKE $%d OR publisher ILIKE $%d OR isbn ILIKE $%d)",
			argn, argn, argn, argn))
		args = append(args, containsPattern(q.Term))
		argn++
	}

	if q.ISBN != "" {
		clauses = append(clauses, fmt.Sprintf("isbn ILIKE $%d", argn))
		args = append(args, containsPattern(q.ISBN))
		argn++
	}

	if q.LibraryID != "" {
		clauses = append(clauses, fmt.Sprintf("library_id ILIKE $%d", argn))
		args = append(args, containsPattern(q.LibraryID))
		argn++
	}

	if q.Titles != nil {
		lowered := make([]string, len(q.Titles))
		for i, t := range q.Titles {
			lowered[i] = strings.ToLower(t)
		}
		clauses = append(clauses, fmt.Sprintf("lower(title) = ANY($%d)", argn))
		args = append(args, lowered)
		argn++
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	var sb strings.Builder
	if q.Distinct {
		fmt.Fprintf(&sb, `SELECT min(id) AS id, title, COALESCE(author, ''), COALESCE(isbn, ''), publication_year,
		COALESCE(publisher, ''), library_id FROM books %s
		GROUP BY title, author, isbn, publication_year, publisher, library_id`, where)
	} else {
		fmt.Fprintf(&sb, "SELECT %s FROM books %s", listColumns, where)
	}
	sb.WriteString(" ORDER BY id")

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", argn, argn+1)
		args = append(args, q.Limit, q.Offset)
	}
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns s into a LIKE pattern that matches s literally
// anywhere in the column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
