package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_log.
type AuditLog struct {
	Actor     Actor
	Action    string
	Entity    string
	EntityID  string
	Meta      map[string]any
	IP        string
	UserAgent string
	At        time.Time
}

// AuditLogger writes records into audit_log. Recording is best-effort at call
// sites: a failed audit write must never fail the mutation it describes.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// AuditEntry is one audit_log row read back for the trail view.
type AuditEntry struct {
	ID        int64          `json:"id"`
	At        time.Time      `json:"at"`
	UserID    *string        `json:"user_id,omitempty"`
	Username  string         `json:"username"`
	Role      string         `json:"role"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Meta      map[string]any `json:"meta,omitempty"`
	IP        *string        `json:"ip,omitempty"`
	UserAgent *string        `json:"user_agent,omitempty"`
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" {
		return errors.New("audit log requires action and entity")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	at := log.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_log (at, user_id, username, role, action, entity, entity_id, meta, ip, user_agent)
VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8, $9, $10)`,
		at, log.Actor.ID, log.Actor.Username, log.Actor.Role,
		log.Action, log.Entity, log.EntityID, metaJSON, log.IP, log.UserAgent)
	return err
}

// List returns the most recent entries, optionally filtered by entity.
func (l *AuditLogger) List(ctx context.Context, entity string, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, at, user_id, username, role, action, entity, entity_id, meta, ip, user_agent
FROM audit_log
WHERE ($1 = '' OR entity = $1)
ORDER BY at DESC, id DESC
LIMIT $2`, entity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var metaJSON []byte
		err := rows.Scan(&e.ID, &e.At, &e.UserID, &e.Username, &e.Role,
			&e.Action, &e.Entity, &e.EntityID, &metaJSON, &e.IP, &e.UserAgent)
		if err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
