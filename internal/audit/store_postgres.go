package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"connect2uni/pkg/platform/tx"
)

// PostgresStore persists workflow events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres constructs a PostgreSQL-backed outbox store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t := tx.From(ctx); t != nil {
		return t
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, e Event) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return fmt.Errorf("marshal event detail: %w", err)
	}
	const query = `
		INSERT INTO workflow_events (id, occurred_at, application_id, actor_role, actor_id, action, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.q(ctx).ExecContext(ctx, query,
		e.ID, e.OccurredAt, e.ApplicationID, e.ActorRole, e.ActorID, e.Action, detail,
	)
	if err != nil {
		return fmt.Errorf("append workflow event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUnpublished(ctx context.Context, limit int) ([]Event, error) {
	const query = `
		SELECT id, occurred_at, application_id, actor_role, actor_id, action, detail
		FROM workflow_events
		WHERE published_at IS NULL
		ORDER BY occurred_at
		LIMIT $1
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var detail []byte
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.ApplicationID, &e.ActorRole, &e.ActorID, &e.Action, &detail); err != nil {
			return nil, fmt.Errorf("scan workflow event: %w", err)
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal event detail: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	const query = `UPDATE workflow_events SET published_at = NOW() WHERE id = ANY($1::uuid[])`
	if _, err := s.q(ctx).ExecContext(ctx, query, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}
