package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campuslend/lendhub/internal/models"
	"github.com/lib/pq"
)

// AuditRepo persists transaction log entries. The log is append-only:
// there is deliberately no update or delete here.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append writes one immutable log entry. Failures must be surfaced to the
// caller; the component that committed the documented mutation decides how
// to degrade.
func (r *AuditRepo) Append(ctx context.Context, e models.TransactionLogEntry) error {
	var meta []byte
	if e.Meta != nil {
		var err error
		meta, err = json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("marshal audit meta: %w", err)
		}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transaction_log (type, item_id, request_id, user_id, ts, meta)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.Type, e.ItemID, e.RequestID, e.UserID, e.Timestamp, meta,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListSince returns entries of the given types at or after from, newest
// first, joined with item and user names for reporting.
func (r *AuditRepo) ListSince(ctx context.Context, from time.Time, types []string) ([]models.TransactionLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.type, l.item_id, l.request_id, l.user_id, l.ts, l.meta,
		        COALESCE(i.name, ''), COALESCE(u.name, '')
		 FROM transaction_log l
		 LEFT JOIN items i ON i.id = l.item_id
		 LEFT JOIN users u ON u.id = l.user_id
		 WHERE l.ts >= $1 AND l.type = ANY($2)
		 ORDER BY l.ts DESC`,
		from, pq.Array(types),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// List returns recent entries of any type, newest first.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]models.TransactionLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.type, l.item_id, l.request_id, l.user_id, l.ts, l.meta,
		        COALESCE(i.name, ''), COALESCE(u.name, '')
		 FROM transaction_log l
		 LEFT JOIN items i ON i.id = l.item_id
		 LEFT JOIN users u ON u.id = l.user_id
		 ORDER BY l.ts DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]models.TransactionLogEntry, error) {
	var entries []models.TransactionLogEntry
	for rows.Next() {
		var e models.TransactionLogEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.ItemID, &e.RequestID, &e.UserID, &e.Timestamp, &meta, &e.ItemName, &e.UserName); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal audit meta: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
