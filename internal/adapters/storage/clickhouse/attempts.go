// Package clickhouse stores attempt events for reporting.
package clickhouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"instore-payment-client/internal/config"
	"instore-payment-client/internal/core/domain"
)

const attemptsDDL = `
	CREATE TABLE IF NOT EXISTS payment_attempts (
	    event_id    UUID,
	    kind        LowCardinality(String),
	    state       LowCardinality(String),
	    environment LowCardinality(String),
	    merchant_id String,
	    email       String,
	    amount      String,
	    message     String,
	    occurred_at DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY (merchant_id, occurred_at)`

// AttemptStore implements ports.AttemptPublisher and the read side used by
// the reporting tool.
type AttemptStore struct {
	conn   clickhouse.Conn
	logger *slog.Logger
}

// Connect opens a native-protocol connection using cfg.
func Connect(ctx context.Context, cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: clickhouse ping: %v", domain.ErrStorageUnavailable, err)
	}
	return conn, nil
}

// NewAttemptStore creates the payment_attempts table if needed.
func NewAttemptStore(ctx context.Context, conn clickhouse.Conn, logger *slog.Logger) (*AttemptStore, error) {
	if err := conn.Exec(ctx, attemptsDDL); err != nil {
		return nil, fmt.Errorf("failed to create payment_attempts: %w", err)
	}
	return &AttemptStore{conn: conn, logger: logger}, nil
}

func (s *AttemptStore) PublishAttempt(ctx context.Context, event domain.AttemptEvent) error {
	err := s.conn.Exec(ctx, `
		INSERT INTO payment_attempts (event_id, kind, state, environment, merchant_id, email, amount, message, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		string(event.Kind),
		event.State,
		string(event.Environment),
		event.MerchantID,
		event.Email,
		event.Amount,
		event.Message,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert attempt: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// RecentFailures returns the latest FAILED and MALFORMED events, newest first.
func (s *AttemptStore) RecentFailures(ctx context.Context, limit int) ([]domain.AttemptEvent, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT event_id, kind, state, environment, merchant_id, email, amount, message, occurred_at
		FROM payment_attempts
		WHERE state IN ('FAILED', 'MALFORMED')
		ORDER BY occurred_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var events []domain.AttemptEvent
	for rows.Next() {
		var (
			e         domain.AttemptEvent
			id        uuid.UUID
			kind, env string
		)
		if err := rows.Scan(&id, &kind, &e.State, &env, &e.MerchantID, &e.Email, &e.Amount, &e.Message, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		e.ID = id
		e.Kind = domain.AttemptKind(kind)
		e.Environment = domain.Environment(env)
		events = append(events, e)
	}
	return events, rows.Err()
}

// UserCount is the number of attempts per operator and terminal state.
type UserCount struct {
	Email string
	State string
	Count uint64
}

// CountsByUser aggregates attempts since the given time.
func (s *AttemptStore) CountsByUser(ctx context.Context, since time.Time) ([]UserCount, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT email, state, count() AS n
		FROM payment_attempts
		WHERE occurred_at >= ? AND email != ''
		GROUP BY email, state
		ORDER BY n DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var out []UserCount
	for rows.Next() {
		var c UserCount
		if err := rows.Scan(&c.Email, &c.State, &c.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *AttemptStore) Close() {
	if err := s.conn.Close(); err != nil {
		s.logger.Error("failed to close clickhouse connection", "error", err)
	}
}
