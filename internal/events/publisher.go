// Package events carries the asynchronous progress write path over NATS
// JetStream. Reports published here are applied by the consumer through the
// progress service; because reports are idempotent, redelivery is harmless.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// SubjectProgressReport carries one watch report per message.
	SubjectProgressReport = "progress.report"
	streamName            = "PROGRESS"
)

// ReportEvent is the payload for a single progress report.
type ReportEvent struct {
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	SeriesID  string `json:"series_id"`
	Season    int    `json:"season"`
	Episode   int    `json:"episode"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Publisher publishes progress events to JetStream. A Publisher built from a
// nil connection is a disabled stub; callers fall back to synchronous writes.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// NewPublisher wires JetStream and ensures the PROGRESS stream exists.
func NewPublisher(nc *nats.Conn, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if nc == nil {
		return &Publisher{log: log}, nil
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	// Create stream if it doesn't exist.
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{"progress.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		log.Warn("failed to create NATS stream (may already exist)", zap.Error(err))
	}

	log.Info("progress event publisher initialised", zap.String("stream", streamName))
	return &Publisher{js: js, log: log}, nil
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.js != nil
}

// PublishReport publishes one report and returns its event id.
func (p *Publisher) PublishReport(ev ReportEvent) (string, error) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.CreatedAt == "" {
		ev.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	if _, err := p.js.Publish(SubjectProgressReport, data); err != nil {
		return "", err
	}
	return ev.EventID, nil
}
