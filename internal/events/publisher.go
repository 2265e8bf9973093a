// Package events publishes per-project orchestration results to NATS so other
// systems (chat notifiers, dashboards) can react to documentation builds.
// Publishing is best effort: a lost event never fails a build.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/dochost/internal/logfields"
)

// BuildEvent is the published payload for one project result.
type BuildEvent struct {
	RunID    string    `json:"run_id"`
	Project  string    `json:"project"`
	Route    string    `json:"route"`
	Status   string    `json:"status"`
	Detail   string    `json:"detail,omitempty"`
	Duration int64     `json:"duration_ms"`
	At       time.Time `json:"at"`
}

// Publisher delivers build events. The zero-value NoopPublisher is used when
// events are not configured.
type Publisher interface {
	Publish(ev BuildEvent)
	Close()
}

// NoopPublisher drops all events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(BuildEvent) {}
func (NoopPublisher) Close()             {}

// NATSPublisher publishes JSON events to a fixed subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// Connect establishes the NATS connection. Call Close on shutdown.
func Connect(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("dochost"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to NATS for build events", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) Publish(ev BuildEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Failed to encode build event", logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Failed to publish build event", logfields.Project(ev.Project), logfields.Error(err))
	}
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
