package realtime

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
)

// AlertNotifier delivers an alert to devices outside the browser session.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert domain.RealtimeAlert) (sent int, err error)
}

// Dispatcher implements pipeline.BatchLoader: each admitted alert goes to
// the hub and, when configured, to device push.
type Dispatcher struct {
	hub      *Hub
	notifier AlertNotifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDispatcher creates a Dispatcher. Pass a nil notifier to disable device push.
func NewDispatcher(hub *Hub, notifier AlertNotifier, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier, logger: logger, metrics: metrics}
}

// LoadBatch never fails on delivery problems; a push failure is logged and
// counted so one bad device batch cannot stall the consumer.
func (d *Dispatcher) LoadBatch(ctx context.Context, alerts []domain.RealtimeAlert) error {
	for _, a := range alerts {
		if err := ctx.Err(); err != nil {
			return err
		}
		queued := d.hub.Broadcast(a)
		d.logger.Info("realtime alert dispatched",
			"alert_id", a.ID,
			"alert_type", a.AlertType,
			"severity_level", a.SeverityLevel,
			"toasts", queued,
		)

		if d.notifier == nil {
			continue
		}
		sent, err := d.notifier.NotifyAlert(ctx, a)
		if err != nil {
			d.metrics.PushNotifications.WithLabelValues("failure").Inc()
			d.logger.Warn("device push failed", "alert_id", a.ID, "error", err)
			continue
		}
		if sent > 0 {
			d.metrics.PushNotifications.WithLabelValues("success").Add(float64(sent))
		}
	}
	return nil
}
