package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rl1809/order-console/internal/core/domain"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS order_submissions (
	request_id VARCHAR(64) PRIMARY KEY,
	username   VARCHAR(150) NOT NULL,
	items      JSON NOT NULL,
	succeeded  BOOLEAN NOT NULL,
	error      TEXT,
	created_at DATETIME(6) NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS order_status_events (
	id         BIGINT AUTO_INCREMENT PRIMARY KEY,
	username   VARCHAR(150) NOT NULL,
	order_id   BIGINT NOT NULL,
	status     VARCHAR(32) NOT NULL,
	applied_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	INDEX idx_status_events_order (order_id)
)`}

// MySQLAdapter is the local audit journal: every create-order attempt and
// every push status change applied to the history.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the journal tables, one statement at a time.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate journal: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) RecordSubmission(ctx context.Context, sub domain.Submission) error {
	items, err := json.Marshal(sub.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	var errText sql.NullString
	if sub.Error != "" {
		errText = sql.NullString{String: sub.Error, Valid: true}
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO order_submissions (request_id, username, items, succeeded, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sub.RequestID, sub.Username, string(items), sub.Succeeded, errText, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) RecordStatusEvent(ctx context.Context, username string, ev domain.StatusEvent) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO order_status_events (username, order_id, status)
		VALUES (?, ?, ?)`,
		username, ev.OrderID, string(ev.Status),
	)
	if err != nil {
		return fmt.Errorf("insert status event: %w", err)
	}
	return nil
}

// Submissions lists a user's journaled attempts, newest first. The DSN needs
// parseTime=true.
func (m *MySQLAdapter) Submissions(ctx context.Context, username string, limit int) ([]domain.Submission, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT request_id, username, items, succeeded, error, created_at
		FROM order_submissions WHERE username = ?
		ORDER BY created_at DESC LIMIT ?`, username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var (
			sub     domain.Submission
			items   []byte
			errText sql.NullString
		)
		if err := rows.Scan(&sub.RequestID, &sub.Username, &items, &sub.Succeeded, &errText, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal(items, &sub.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		sub.Error = errText.String
		out = append(out, sub)
	}
	return out, rows.Err()
}
