package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/observability"
)

// DefaultAlertQueueSize is the number of alerts buffered ahead of delivery.
const DefaultAlertQueueSize = 64

// AlertQueue hands evacuation alerts to a background worker so a slow or
// failing delivery never holds up Transform. It implements domain.Notifier.
type AlertQueue struct {
	next    domain.Notifier
	queue   chan domain.AssessmentResult
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAlertQueue buffers up to size alerts for next. Sizes below 1 use
// DefaultAlertQueueSize.
func NewAlertQueue(next domain.Notifier, size int, logger *slog.Logger, metrics *observability.Metrics) *AlertQueue {
	if size < 1 {
		size = DefaultAlertQueueSize
	}
	return &AlertQueue{
		next:    next,
		queue:   make(chan domain.AssessmentResult, size),
		logger:  logger,
		metrics: metrics,
	}
}

// NotifyEvacuation enqueues result without blocking. A full queue drops the
// alert and returns an error.
func (q *AlertQueue) NotifyEvacuation(_ context.Context, result domain.AssessmentResult) error {
	select {
	case q.queue <- result:
		return nil
	default:
		q.metrics.Notifications.WithLabelValues("dropped").Inc()
		return fmt.Errorf("alert queue full, dropped alert for %s", result.ID)
	}
}

// Run delivers queued alerts one at a time until ctx is cancelled. Alerts
// still queued at that point are discarded.
func (q *AlertQueue) Run(ctx context.Context) {
	q.logger.Info("alert queue started", "capacity", cap(q.queue))
	for {
		select {
		case <-ctx.Done():
			if n := len(q.queue); n > 0 {
				q.logger.Warn("alert queue stopped with pending alerts", "pending", n)
			}
			return
		case result := <-q.queue:
			if err := q.next.NotifyEvacuation(ctx, result); err != nil {
				q.logger.Warn("evacuation alert failed", "id", result.ID, "error", err)
			}
		}
	}
}
