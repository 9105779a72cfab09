package eventlog

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/explorer/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS explorer_events (
	id          UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	level       TEXT NOT NULL,
	message     TEXT NOT NULL,
	dataset_id  TEXT,
	source      TEXT,
	row_count   INTEGER,
	ip_address  INET,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS explorer_events_created_at_idx ON explorer_events (created_at);
`

// PgRecorder stores events in the explorer_events table.
type PgRecorder struct {
	pool *pgxpool.Pool
}

// NewPgRecorder returns a recorder over pool. Call EnsureSchema once before use.
func NewPgRecorder(pool *pgxpool.Pool) *PgRecorder {
	return &PgRecorder{pool: pool}
}

// EnsureSchema creates the events table and its index if missing.
func (r *PgRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create explorer_events: %w", err)
	}
	return nil
}

// Record implements core.EventRecorder.
func (r *PgRecorder) Record(ctx context.Context, e core.Event) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		id = uuid.New()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO explorer_events
			(id, action, level, message, dataset_id, source, row_count, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pgtype.UUID{Bytes: id, Valid: true},
		string(e.Action),
		string(e.Level),
		e.Message,
		pgText(e.DatasetID),
		pgText(e.Source),
		pgInt4(e.Rows),
		ipAddr(e.IPAddress),
		pgText(e.UserAgent),
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: !e.CreatedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *PgRecorder) Recent(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, action, level, message, dataset_id, source, row_count, ip_address, user_agent, created_at
		FROM explorer_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]core.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// Purge deletes events older than retentionDays and reports how many went.
func (r *PgRecorder) Purge(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM explorer_events WHERE created_at < now() - make_interval(days => $1)`,
		retentionDays)
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEvent(rows pgx.Rows) (core.Event, error) {
	var (
		id        pgtype.UUID
		action    string
		level     string
		message   string
		datasetID pgtype.Text
		source    pgtype.Text
		nrows     pgtype.Int4
		ip        *netip.Addr
		userAgent pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := rows.Scan(&id, &action, &level, &message, &datasetID, &source,
		&nrows, &ip, &userAgent, &createdAt); err != nil {
		return core.Event{}, fmt.Errorf("scan event: %w", err)
	}

	e := core.Event{
		Action:    core.EventAction(action),
		Level:     core.EventLevel(level),
		Message:   message,
		DatasetID: datasetID.String,
		Source:    source.String,
		UserAgent: userAgent.String,
		CreatedAt: createdAt.Time,
	}
	if id.Valid {
		e.ID = uuid.UUID(id.Bytes).String()
	}
	if nrows.Valid {
		e.Rows = int(nrows.Int32)
	}
	if ip != nil {
		e.IPAddress = ip.String()
	}
	return e, nil
}

func pgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

func pgInt4(i int) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(i), Valid: i != 0}
}

// ipAddr parses an address with or without a port; unparseable input is NULL.
func ipAddr(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	return &addr
}
