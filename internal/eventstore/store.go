// Package eventstore persists build lifecycle metadata in SQLite so watch
// and serve modes can answer "what happened to build X" after the fact.
// Only metadata is stored, never index contents.
package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// Event is one recorded build lifecycle step.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Store persists and retrieves build events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID retrieves all events for a specific build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Record marshals payload to JSON and appends it, downgrading failures to
// warnings. Build bookkeeping must never fail a build; a nil store is a
// no-op so callers don't branch on whether persistence is configured.
func Record(ctx context.Context, store Store, buildID, eventType string, payload any) {
	if store == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("Cannot marshal build event", logfields.Error(err))
		return
	}
	if err := store.Append(ctx, buildID, eventType, data, nil); err != nil {
		slog.Warn("Cannot record build event",
			logfields.BuildID(buildID),
			slog.String("event_type", eventType),
			logfields.Error(err))
	}
}
