package domain

import (
	"context"
	"log/slog"
)

// EnrichHazardLocation fills a missing location label from reverse geocoding.
// A nil geocoder, a lookup failure, or an empty result leaves the hazard
// unchanged (graceful degradation).
func EnrichHazardLocation(ctx context.Context, h Hazard, geocoder Geocoder, logger *slog.Logger) Hazard {
	if geocoder == nil || h.Location != "" {
		return h
	}

	result, err := geocoder.ReverseGeocode(ctx, h.Geo.Lat, h.Geo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"hazard_id", h.ID,
			"lat", h.Geo.Lat,
			"lon", h.Geo.Lon,
			"error", err,
		)
		return h
	}

	switch {
	case result.PlaceName != "" && result.Province != "" && result.PlaceName != result.Province:
		h.Location = result.PlaceName + " จ." + result.Province
	case result.PlaceName != "":
		h.Location = result.PlaceName
	case result.Province != "":
		h.Location = result.Province
	default:
		h.Location = result.FormattedAddress
	}
	return h
}

// EnrichAlertProvinces fills an empty affected-province list with the
// province at the alert's epicentre so area-subscribed users can match it.
func EnrichAlertProvinces(ctx context.Context, a RealtimeAlert, geocoder Geocoder, logger *slog.Logger) RealtimeAlert {
	if geocoder == nil || len(a.AffectedProvinces) > 0 {
		return a
	}

	result, err := geocoder.ReverseGeocode(ctx, a.Geo.Lat, a.Geo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"alert_id", a.ID,
			"lat", a.Geo.Lat,
			"lon", a.Geo.Lon,
			"error", err,
		)
		return a
	}
	if result.Province != "" {
		a.AffectedProvinces = []string{result.Province}
	}
	return a
}
