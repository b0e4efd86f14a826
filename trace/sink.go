// Package trace is an optional, strictly write-only log of rollback
// events (validations, desyncs) for post-mortem debugging. It is not
// part of the simulation contract: nothing in rollback or sim reads it
// back — the sink is fed events, never consulted.
package trace

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// EventKind distinguishes the rollback lifecycle moments worth tracing.
type EventKind string

const (
	EventValidateFrame EventKind = "validate_frame"
	EventDesync        EventKind = "desync"
	EventStaleConfirm  EventKind = "stale_confirm"
)

// Event is one row appended to the trace sink. It carries enough to
// reconstruct "what happened when" for a post-mortem, never data the
// simulation reads back.
type Event struct {
	Kind      EventKind
	Frame     int64
	Player    int
	Detail    string
	Timestamp time.Time
}

// Sink is a write-only async-drained event log backed by Postgres.
// Opening it is optional (config.TraceConfig.Enabled); a nil *Sink is a
// valid no-op receiver so callers never need to branch on whether
// tracing is on.
type Sink struct {
	pool   *pgxpool.Pool
	events chan Event
	done   chan struct{}
}

// Open connects to dsn and starts the background writer goroutine. The
// caller must call Close on shutdown to drain pending events.
func Open(ctx context.Context, dsn string) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "trace: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "trace: ping")
	}
	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Sink{
		pool:   pool,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s, nil
}

// Record enqueues ev for writing. Non-blocking best-effort: a full
// buffer drops the event and logs a warning rather than stalling the
// simulation thread.
func (s *Sink) Record(ev Event) {
	if s == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case s.events <- ev:
	default:
		log.Warn().Str("kind", string(ev.Kind)).Msg("trace: buffer full, dropping event")
	}
}

func (s *Sink) run(ctx context.Context) {
	defer close(s.done)
	for ev := range s.events {
		_, err := s.pool.Exec(ctx,
			`insert into rollback_events (kind, frame, player, detail, occurred_at) values ($1, $2, $3, $4, $5)`,
			ev.Kind, ev.Frame, ev.Player, ev.Detail, ev.Timestamp,
		)
		if err != nil {
			log.Warn().Err(err).Msg("trace: write failed")
		}
	}
}

// Close drains any buffered events and releases the connection pool.
func (s *Sink) Close() {
	if s == nil {
		return
	}
	close(s.events)
	<-s.done
	s.pool.Close()
}
