// Package events publishes build lifecycle and broken-link events to NATS
// JetStream. A nil Publisher is valid and makes every publish a no-op, so
// callers never need to branch on whether eventing is configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// BuildEvent reports one lifecycle step of a build.
type BuildEvent struct {
	BuildID   string    `json:"build_id"`
	Kind      string    `json:"kind"`
	IndexID   string    `json:"index_id,omitempty"`
	Repo      string    `json:"repo,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BrokenLinkEvent reports one broken link found during link checking.
type BrokenLinkEvent struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Build event kinds.
const (
	KindBuildStarted     = "build_started"
	KindIndexCompleted   = "index_completed"
	KindWikiBuilt        = "wiki_built"
	KindSlidesBuilt      = "slides_built"
	KindPublishCompleted = "publish_completed"
	KindBuildFailed      = "build_failed"
)

// Publisher publishes events over JetStream.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewPublisher connects per [events]. Returns (nil, nil) when eventing is
// disabled; a connection failure is an error the caller may choose to
// downgrade to a warning.
func NewPublisher(cfg config.EventsConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	slog.Info("Event publisher connected", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))
	return &Publisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishBuild publishes a build lifecycle event.
func (p *Publisher) PublishBuild(event BuildEvent) error {
	if p == nil {
		return nil
	}
	event.Timestamp = time.Now()
	return p.publish(p.subject, event)
}

// PublishBrokenLink publishes a broken-link event on a sub-subject.
func (p *Publisher) PublishBrokenLink(event BrokenLinkEvent) error {
	if p == nil {
		return nil
	}
	event.Timestamp = time.Now()
	return p.publish(p.subject+".links", event)
}

func (p *Publisher) publish(subject string, event any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	slog.Debug("Event published", slog.String("subject", subject))
	return nil
}

// Close closes the underlying connection. Safe on nil.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

// WarnOnPublishError logs and swallows a publish error; event delivery is
// never allowed to fail a build.
func WarnOnPublishError(err error) {
	if err != nil {
		slog.Warn("Event publish failed", logfields.Error(err))
	}
}
