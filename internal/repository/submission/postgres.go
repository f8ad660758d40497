package submission

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `
SELECT id, session_id, mode, succeeded, message, contragent_id, total::text, item_count, document_ids, payload, created_at
FROM submissions
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Append(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.DocumentIDs == nil {
		rec.DocumentIDs = []int64{}
	}
	payload := rec.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	const q = `
INSERT INTO submissions (id, session_id, mode, succeeded, message, contragent_id, total, item_count, document_ids, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11)
`
	if _, err := r.pool.Exec(ctx, q,
		rec.ID,
		rec.SessionID,
		rec.Mode,
		rec.Succeeded,
		rec.Message,
		rec.ContragentID,
		rec.Total.StringFixed(2),
		rec.ItemCount,
		rec.DocumentIDs,
		string(payload),
		rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *postgresRepo) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, selectColumns+`ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return collect(rows)
}

func (r *postgresRepo) BySession(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := r.pool.Query(ctx, selectColumns+`WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session submissions: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		var total string
		var payload []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Mode,
			&rec.Succeeded,
			&rec.Message,
			&rec.ContragentID,
			&total,
			&rec.ItemCount,
			&rec.DocumentIDs,
			&payload,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := rec.Total.Scan(total); err != nil {
			return nil, fmt.Errorf("scan submission total: %w", err)
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}
