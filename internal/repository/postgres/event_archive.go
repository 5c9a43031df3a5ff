// Package postgres provides an optional durable archive for security events.
// The live detectors stay entirely in memory; the archive is strictly
// write-behind and is never consulted on the request path.
package postgres

import (
	"database/sql"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"

	"portfolio-api/internal/models"
	"portfolio-api/internal/util"
)

const (
	batchSize     = 50
	batchInterval = 2 * time.Second
	queueSize     = 10000
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS security_events (
	id          TEXT PRIMARY KEY,
	event_type  TEXT NOT NULL,
	severity    TEXT NOT NULL,
	ip_address  TEXT NOT NULL,
	user_agent  TEXT NOT NULL DEFAULT '',
	user_id     TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	details     TEXT NOT NULL DEFAULT '',
	metadata    JSONB NOT NULL DEFAULT '{}',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_security_events_occurred_at ON security_events (occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_security_events_ip ON security_events (ip_address);
`

// EventArchive batches security events into PostgreSQL in the background.
// Archiving is best effort: a full queue drops events rather than blocking
// the detectors that feed it.
type EventArchive struct {
	db      *sql.DB
	queue   chan models.SecurityEvent
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// Counters are touched from both the hook path and the writer
	// goroutine, so they stay atomic.
	eventsWritten  atomic.Uint64
	eventsDropped  atomic.Uint64
	batchesWritten atomic.Uint64
}

// NewEventArchive connects to PostgreSQL, ensures the schema exists, and
// returns an archive ready to Start.
func NewEventArchive(databaseURL string) (*EventArchive, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(createEventsTable); err != nil {
		db.Close()
		return nil, err
	}

	util.Info("Connected to PostgreSQL event archive")

	return &EventArchive{
		db:    db,
		queue: make(chan models.SecurityEvent, queueSize),
		done:  make(chan struct{}),
	}, nil
}

// Start launches the background writer goroutine.
func (a *EventArchive) Start() {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.mu.Unlock()

	a.wg.Add(1)
	go a.writerLoop()
	util.Info("Security event archive started")
}

// Stop flushes queued events and closes the database connection.
func (a *EventArchive) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	close(a.done)
	a.wg.Wait()
	a.db.Close()
	util.Info("Security event archive stopped",
		util.Any("events_written", a.eventsWritten.Load()),
		util.Any("events_dropped", a.eventsDropped.Load()),
		util.Any("batches_written", a.batchesWritten.Load()))
}

// Archive queues an event for batch writing. Safe to call from the IDS
// event hook; never blocks.
func (a *EventArchive) Archive(event models.SecurityEvent) {
	select {
	case a.queue <- event:
	default:
		if dropped := a.eventsDropped.Add(1); dropped%1000 == 0 {
			util.Warn("Archive queue full, dropping events",
				util.Any("dropped", dropped))
		}
	}
}

// RecentEvents reads the newest archived events, for the admin dashboard's
// historical view. This is the only read path into the archive.
func (a *EventArchive) RecentEvents(limit int) ([]models.SecurityEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.Query(`
		SELECT id, event_type, severity, ip_address, user_agent,
		       user_id, email, details, metadata, occurred_at
		FROM security_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.SecurityEvent, 0, limit)
	for rows.Next() {
		var (
			evt      models.SecurityEvent
			metaJSON []byte
		)
		if err := rows.Scan(&evt.ID, &evt.Type, &evt.Severity, &evt.IPAddress,
			&evt.UserAgent, &evt.UserID, &evt.Email, &evt.Details,
			&metaJSON, &evt.Timestamp); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &evt.Metadata)
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Stats returns archive throughput counters.
func (a *EventArchive) Stats() map[string]interface{} {
	return map[string]interface{}{
		"events_written":  a.eventsWritten.Load(),
		"events_dropped":  a.eventsDropped.Load(),
		"batches_written": a.batchesWritten.Load(),
		"queue_len":       len(a.queue),
		"queue_cap":       cap(a.queue),
	}
}

func (a *EventArchive) writerLoop() {
	defer a.wg.Done()

	batch := make([]models.SecurityEvent, 0, batchSize)
	ticker := time.NewTicker(batchInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-a.queue:
			batch = append(batch, event)
			if len(batch) >= batchSize {
				a.writeBatch(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				a.writeBatch(batch)
				batch = batch[:0]
			}

		case <-a.done:
			// Flush whatever is still queued before exiting.
			close(a.queue)
			for event := range a.queue {
				batch = append(batch, event)
				if len(batch) >= batchSize {
					a.writeBatch(batch)
					batch = batch[:0]
				}
			}
			if len(batch) > 0 {
				a.writeBatch(batch)
			}
			return
		}
	}
}

func (a *EventArchive) writeBatch(batch []models.SecurityEvent) {
	if len(batch) == 0 {
		return
	}

	tx, err := a.db.Begin()
	if err != nil {
		util.Error("Failed to begin archive transaction", util.ErrorField(err))
		return
	}
	defer tx.Rollback()

	written := 0
	for _, event := range batch {
		if a.writeEvent(tx, event) {
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		util.Error("Failed to commit archive batch", util.ErrorField(err))
		return
	}

	a.eventsWritten.Add(uint64(written))
	a.batchesWritten.Add(1)
}

func (a *EventArchive) writeEvent(tx *sql.Tx, event models.SecurityEvent) bool {
	metaJSON, err := json.Marshal(event.Metadata)
	if err != nil || len(metaJSON) == 0 {
		metaJSON = []byte("{}")
	}

	// Event IDs are unique; a conflict means a redelivered hook call.
	_, err = tx.Exec(`
		INSERT INTO security_events (
			id, event_type, severity, ip_address, user_agent,
			user_id, email, details, metadata, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		event.ID,
		event.Type,
		event.Severity,
		event.IPAddress,
		event.UserAgent,
		event.UserID,
		event.Email,
		event.Details,
		metaJSON,
		event.Timestamp,
	)

	if err != nil {
		util.Error("Failed to insert security event", util.ErrorField(err))
		return false
	}
	return true
}
