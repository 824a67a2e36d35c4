package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
)

// Outbox queues events locally and flushes them against the data API in
// the background. Enqueue never blocks on network I/O, so a handler can
// always log a tweak_submitted/rerun_clicked event without risking the
// §5 "no handler holds a lock across a suspension point" rule turning
// into "no handler waits on a flaky data API either."
type Outbox struct {
	db     *sql.DB
	client *dataapi.Client
	log    *slog.Logger
}

// Open opens (and does not migrate) the sqlite database at path. Call
// Migrate(path) once at startup before Open, per cmd/forgebot migrate.
func Open(path string, client *dataapi.Client, log *slog.Logger) (*Outbox, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("eventlog: open database: %w", err)
	}
	return &Outbox{db: db, client: client, log: log}, nil
}

// Close releases the underlying database handle.
func (o *Outbox) Close() error { return o.db.Close() }

// Enqueue persists ev for later delivery. A failure to enqueue (disk
// full, corrupt db) is itself logged and swallowed — the event-logging
// path must never become fatal to the handler that triggered it (§7).
func (o *Outbox) Enqueue(ctx context.Context, ev dataapi.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		o.log.Warn("eventlog: marshal event payload failed", "type", ev.Type, "err", err)
		return
	}
	_, err = o.db.ExecContext(ctx,
		`INSERT INTO outbox_events (event_type, master_account_id, generation_id, payload_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		ev.Type, ev.MasterAccountID, ev.GenerationID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		o.log.Warn("eventlog: enqueue failed", "type", ev.Type, "err", err)
	}
}

// outboxRow mirrors one unflushed outbox_events row.
type outboxRow struct {
	id              int64
	eventType       string
	masterAccountID sql.NullString
	generationID    sql.NullString
	payloadJSON     string
}

// flushBatchSize bounds how many rows a single flush pass sends, so one
// flusher tick can't monopolize the data-API connection under a backlog.
const flushBatchSize = 50

// flushOnce sends every currently-unflushed row (up to flushBatchSize),
// marking each flushed on success. A row that fails to post is left
// unflushed and retried on the next tick.
func (o *Outbox) flushOnce(ctx context.Context) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, event_type, master_account_id, generation_id, payload_json FROM outbox_events WHERE flushed_at IS NULL ORDER BY id LIMIT ?`,
		flushBatchSize)
	if err != nil {
		o.log.Warn("eventlog: query unflushed events failed", "err", err)
		return
	}

	var pending []outboxRow
	for rows.Next() {
		var r outboxRow
		if err := rows.Scan(&r.id, &r.eventType, &r.masterAccountID, &r.generationID, &r.payloadJSON); err != nil {
			o.log.Warn("eventlog: scan outbox row failed", "err", err)
			continue
		}
		pending = append(pending, r)
	}
	rows.Close()

	for _, r := range pending {
		var payload map[string]any
		_ = json.Unmarshal([]byte(r.payloadJSON), &payload)

		err := o.client.PostEvent(ctx, dataapi.Event{
			Type:            r.eventType,
			MasterAccountID: r.masterAccountID.String,
			GenerationID:    r.generationID.String,
			Payload:         payload,
		})
		if err != nil {
			o.log.Debug("eventlog: flush deferred, data API unreachable", "type", r.eventType, "err", err)
			continue
		}
		if _, err := o.db.ExecContext(ctx, `UPDATE outbox_events SET flushed_at = ? WHERE id = ?`, time.Now().UTC().Format(time.RFC3339Nano), r.id); err != nil {
			o.log.Warn("eventlog: mark flushed failed", "id", r.id, "err", err)
		}
	}
}

// Flusher drains the outbox against the data API, tolerating transient
// outages (§7 "best-effort operations ... never propagate").
type Flusher struct {
	outbox   *Outbox
	interval time.Duration
}

// NewFlusher builds a Flusher that drains outbox every interval.
func NewFlusher(outbox *Outbox, interval time.Duration) *Flusher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Flusher{outbox: outbox, interval: interval}
}

// Run blocks, flushing on a fixed interval until ctx is canceled.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.outbox.flushOnce(ctx)
		}
	}
}
