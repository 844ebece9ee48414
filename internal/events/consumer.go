package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/seriestrack/internal/progress"
)

const (
	consumerDurable   = "progress_report"
	fetchBatchSize    = 100
	fetchMaxWait      = 2 * time.Second
	fetchRetryBackoff = time.Second
)

// StartConsumer subscribes to progress.report and applies each event through
// the progress service. Malformed or invalid events are terminated; storage
// failures are Nak'd for redelivery.
func StartConsumer(ctx context.Context, nc *nats.Conn, svc *progress.Service, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}
	sub, err := js.PullSubscribe(SubjectProgressReport, consumerDurable)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectProgressReport, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(fetchBatchSize, nats.MaxWait(fetchMaxWait))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				log.Warn("progress consumer fetch", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(fetchRetryBackoff):
				}
				continue
			}

			for _, m := range msgs {
				if err := ApplyReport(ctx, svc, m.Data); err != nil {
					if terminal(err) {
						log.Warn("progress event discarded", zap.Error(err))
						_ = m.Term()
						continue
					}
					log.Warn("progress event apply failed, will retry", zap.Error(err))
					_ = m.Nak()
					continue
				}
				_ = m.Ack()
			}
		}
	}()
	return nil
}

// ErrMalformedEvent marks payloads that can never be applied.
var ErrMalformedEvent = errors.New("malformed report event")

// ApplyReport decodes one event payload and applies it through the service.
func ApplyReport(ctx context.Context, svc *progress.Service, data []byte) error {
	var ev ReportEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	seriesID, err := uuid.Parse(ev.SeriesID)
	if err != nil {
		return &progress.InvalidRequestError{Field: "series_id", Reason: "not a uuid"}
	}
	status, err := progress.ParseStatus(ev.Status)
	if err != nil {
		return err
	}

	_, err = svc.ReportProgress(ctx, ev.UserID, seriesID, ev.Season, ev.Episode, status)
	return err
}

// terminal reports whether an apply error can never succeed on redelivery.
func terminal(err error) bool {
	var ire *progress.InvalidRequestError
	return errors.As(err, &ire) || errors.Is(err, ErrMalformedEvent)
}
