package eventstore

import (
	"bytes"
	"testing"
	"time"
)

func TestAppendAndGetByBuildID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	payload := []byte(`{"index_id":"idx-1"}`)
	metadata := map[string]string{"repo": "/work/demo"}

	if err := store.Append(ctx, "build-1", "build_started", payload, metadata); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	events, err := store.GetByBuildID(ctx, "build-1")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.BuildID != "build-1" {
		t.Errorf("expected build_id build-1, got %s", event.BuildID)
	}
	if event.Type != "build_started" {
		t.Errorf("expected event_type build_started, got %s", event.Type)
	}
	if !bytes.Equal(event.Payload, payload) {
		t.Errorf("expected payload %s, got %s", payload, event.Payload)
	}
	if event.Metadata["repo"] != "/work/demo" {
		t.Errorf("expected metadata repo=/work/demo, got %v", event.Metadata)
	}
}

func TestGetRange(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	now := time.Now()

	for range 3 {
		if err := store.Append(ctx, "build-1", "wiki_built", []byte("{}"), nil); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}

	events, err := store.GetRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 events, got %d", len(events))
	}

	// A window in the past must match nothing.
	events, err = store.GetRange(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestEventsSeparatedPerBuild(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	_ = store.Append(ctx, "build-1", "build_started", []byte("{}"), nil)
	_ = store.Append(ctx, "build-2", "build_started", []byte("{}"), nil)
	_ = store.Append(ctx, "build-1", "index_completed", []byte("{}"), nil)

	events, err := store.GetByBuildID(ctx, "build-1")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for build-1, got %d", len(events))
	}
	if events[0].Type != "build_started" || events[1].Type != "index_completed" {
		t.Errorf("unexpected order: %s, %s", events[0].Type, events[1].Type)
	}

	events, err = store.GetByBuildID(ctx, "build-2")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event for build-2, got %d", len(events))
	}
}

func TestRecordOnNilStoreIsNoOp(t *testing.T) {
	Record(t.Context(), nil, "build-1", "build_started", map[string]string{"a": "b"})
}
