package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/godilite/sla-monitor/internal/helpdesk"
	"github.com/godilite/sla-monitor/internal/metrics"
)

// Schema creates the mirror tables if they do not exist.
const Schema = `
	CREATE TABLE IF NOT EXISTS groups (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS tickets (
		id          INTEGER PRIMARY KEY,
		status      TEXT NOT NULL,
		assignee_id INTEGER,
		group_id    INTEGER,
		channel     TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (status);
`

// TicketRepository serves ticket search and group listing from a local
// helpdesk mirror. Search pages use keyset pagination on ticket id.
type TicketRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

type Option func(*TicketRepository)

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger *zap.Logger) Option {
	return func(r *TicketRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewTicketRepository(db *sql.DB, opts ...Option) *TicketRepository {
	r := &TicketRepository{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("ticket-repository")
	return r
}

func (r *TicketRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SearchTickets returns up to pageSize tickets with id greater than cursor.
func (r *TicketRepository) SearchTickets(ctx context.Context, q helpdesk.Query, pageSize int, cursor string) (helpdesk.Page, error) {
	var after int64
	if cursor != "" {
		v, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return helpdesk.Page{}, fmt.Errorf("invalid cursor %q: %w", cursor, err)
		}
		after = v
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	var (
		where = []string{"id > ?"}
		args  = []any{after}
	)
	if len(q.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(q.Statuses))+")")
		for _, s := range q.Statuses {
			args = append(args, string(s))
		}
	}
	if len(q.GroupIDs) > 0 {
		where = append(where, "group_id IN ("+placeholders(len(q.GroupIDs))+")")
		for _, g := range q.GroupIDs {
			args = append(args, g)
		}
	}
	args = append(args, pageSize+1)

	query := `
		SELECT id, status, assignee_id, group_id, channel, created_at, updated_at
		FROM tickets
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return helpdesk.Page{}, fmt.Errorf("query SearchTickets: %w", err)
	}
	defer rows.Close()

	var (
		tickets = make([]metrics.Ticket, 0, pageSize)
		seen    int
		lastID  int64
		hasMore bool
	)
	for rows.Next() {
		var row ticketRow
		if err := row.scan(rows); err != nil {
			return helpdesk.Page{}, fmt.Errorf("scan SearchTickets row: %w", err)
		}
		if seen == pageSize {
			hasMore = true
			break
		}
		seen++
		lastID = row.id

		t, err := row.ticket()
		if err != nil {
			r.logger.Warn("skipping malformed ticket row", zap.Int64("ticket_id", row.id), zap.Error(err))
			continue
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return helpdesk.Page{}, fmt.Errorf("iterate SearchTickets: %w", err)
	}

	page := helpdesk.Page{Tickets: tickets}
	if hasMore {
		page.NextCursor = strconv.FormatInt(lastID, 10)
	}
	return page, nil
}

// ListGroups returns at most pageSize groups ordered by id.
func (r *TicketRepository) ListGroups(ctx context.Context, pageSize int) ([]metrics.Group, error) {
	const query = `SELECT id, name FROM groups ORDER BY id LIMIT ?`

	if pageSize <= 0 {
		pageSize = -1
	}

	rows, err := r.db.QueryContext(ctx, query, pageSize)
	if err != nil {
		return nil, fmt.Errorf("query ListGroups: %w", err)
	}
	defer rows.Close()

	var groups []metrics.Group
	for rows.Next() {
		var g metrics.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan ListGroups row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListGroups: %w", err)
	}
	return groups, nil
}

type ticketRow struct {
	id                   int64
	status               string
	assignee, group      sql.NullInt64
	channel              string
	createdAt, updatedAt string
}

func (r *ticketRow) scan(rows *sql.Rows) error {
	return rows.Scan(&r.id, &r.status, &r.assignee, &r.group, &r.channel, &r.createdAt, &r.updatedAt)
}

func (r *ticketRow) ticket() (metrics.Ticket, error) {
	t := metrics.Ticket{
		ID:      r.id,
		Status:  metrics.Status(r.status),
		Channel: r.channel,
	}
	if r.assignee.Valid {
		t.AssigneeID = &r.assignee.Int64
	}
	if r.group.Valid {
		t.GroupID = &r.group.Int64
	}

	var err error
	if t.CreatedAt, err = parseTimestamp(r.createdAt); err != nil {
		return metrics.Ticket{}, fmt.Errorf("ticket %d created_at: %w", r.id, err)
	}
	if t.UpdatedAt, err = parseTimestamp(r.updatedAt); err != nil {
		return metrics.Ticket{}, fmt.Errorf("ticket %d updated_at: %w", r.id, err)
	}
	return t, nil
}

// parseTimestamp accepts RFC 3339 text and every layout go-sqlite3 and
// SQLite's datetime() produce. Values without a zone are UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	trimmed := strings.TrimSuffix(s, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
