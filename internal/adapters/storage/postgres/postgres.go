package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"instore-payment-client/internal/core/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS preferences (
	    namespace TEXT NOT NULL,
	    key       TEXT NOT NULL,
	    value     TEXT NOT NULL,
	    PRIMARY KEY (namespace, key)
	)`

// Repository is an implementation of the KeyValueStore port for PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to dsn and makes sure the preferences table exists.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: unable to ping database: %v", domain.ErrStorageUnavailable, err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to create preferences table: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) Snapshot(ctx context.Context, namespace string) (map[string]string, error) {
	const sql = `SELECT key, value FROM preferences WHERE namespace = $1`

	rows, err := r.pool.Query(ctx, sql, namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	return values, nil
}

// Replace rewrites the namespace in one transaction.
func (r *Repository) Replace(ctx context.Context, namespace string, values map[string]string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM preferences WHERE namespace = $1`, namespace); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for k, v := range values {
			batch.Queue(`INSERT INTO preferences (namespace, key, value) VALUES ($1, $2, $3)`, namespace, k, v)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("%w: replace %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context, namespace string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM preferences WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("%w: clear %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
