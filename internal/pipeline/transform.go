package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

// AlertTransformer implements Transformer: it parses an inserted realtime
// alert, applies the severity and expiry admission rules, and optionally
// fills missing provinces by reverse geocoding.
type AlertTransformer struct {
	minSeverity int
	geocoder    domain.Geocoder
	logger      *slog.Logger
}

// NewTransformer creates an AlertTransformer. Pass a nil geocoder to disable
// province enrichment.
func NewTransformer(minSeverity int, geocoder domain.Geocoder, logger *slog.Logger) *AlertTransformer {
	return &AlertTransformer{
		minSeverity: minSeverity,
		geocoder:    geocoder,
		logger:      logger,
	}
}

func (t *AlertTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.RealtimeAlert, error) {
	alert, err := domain.ParseRealtimeAlert(raw)
	if err != nil {
		return domain.RealtimeAlert{}, err
	}
	if err := alert.Validate(); err != nil {
		return domain.RealtimeAlert{}, fmt.Errorf("realtime alert %s: %w", alert.ID, err)
	}
	if err := domain.AdmitRealtime(alert, t.minSeverity, domain.Now()); err != nil {
		return domain.RealtimeAlert{}, err
	}

	return domain.EnrichAlertProvinces(ctx, alert, t.geocoder, t.logger), nil
}
