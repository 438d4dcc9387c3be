package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aipothole/pothole-api/internal/core/domain"
)

// Stream and subject layout of pothole events.
const (
	StreamName      = "POTHOLE_EVENTS"
	SubjectAll      = "potholes.>"
	SubjectDeleted  = "potholes.deleted.>"
	subjectPrefix   = "potholes."
	imageSubjectSeg = "images."
)

// PotholeSubject is the subject a pothole event is published on, e.g. potholes.created.42.
func PotholeSubject(e *domain.PotholeEvent) string {
	return subjectPrefix + e.Kind + "." + strconv.FormatInt(e.PotholeID, 10)
}

// ImageSubject is the subject an image event is published on, e.g. potholes.images.image_created.42.
func ImageSubject(e *domain.ImageEvent) string {
	return subjectPrefix + imageSubjectSeg + e.Kind + "." + strconv.FormatInt(e.PotholeID, 10)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := EnsureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStream creates or updates the pothole event stream.
func EnsureStream(js nats.JetStreamManager) error {
	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) PublishPotholeEvent(ctx context.Context, event *domain.PotholeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(PotholeSubject(event), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishImageEvent(ctx context.Context, event *domain.ImageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ImageSubject(event), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
