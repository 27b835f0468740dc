package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRealtimeMinSeverity is the lowest severity level pushed to subscribers.
const DefaultRealtimeMinSeverity = 4

// DisasterAlert is an ingested warning shown on the dashboard. Read-only to
// this service.
type DisasterAlert struct {
	ID        string     `json:"id"`
	Type      HazardType `json:"type"`
	Severity  int        `json:"severity"`
	Location  string     `json:"location"`
	Geo       *Geo       `json:"geo,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Active    bool       `json:"active"`
}

// Hazard converts the alert into a filter input. Alerts without a coordinate
// cannot be placed and report ok=false.
func (a DisasterAlert) Hazard() (h Hazard, ok bool) {
	if a.Geo == nil {
		return Hazard{}, false
	}
	return Hazard{
		ID:         "alert-" + a.ID,
		Type:       a.Type,
		Geo:        *a.Geo,
		Location:   a.Location,
		Magnitude:  float64(a.Severity),
		ObservedAt: a.StartTime,
	}, true
}

// AlertFilter narrows an alert listing. Zero values mean "no constraint".
type AlertFilter struct {
	Types  []HazardType
	Active *bool
	Limit  int
}

// RealtimeAlert is a high-urgency alert pushed to connected sessions.
type RealtimeAlert struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	SeverityLevel     int        `json:"severity_level"`
	AlertType         HazardType `json:"alert_type"`
	Geo               Geo        `json:"coordinates"`
	RadiusKM          float64    `json:"radius_km"`
	AffectedProvinces []string   `json:"affected_provinces"`
	Active            bool       `json:"is_active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Validate checks required fields and ranges.
func (a RealtimeAlert) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return invalid("title", "is required")
	}
	if a.SeverityLevel < 1 || a.SeverityLevel > 5 {
		return invalid("severity_level", "must be between 1 and 5")
	}
	if _, ok := ParseHazardType(string(a.AlertType)); !ok {
		return invalid("alert_type", "is unknown")
	}
	if !a.Geo.Valid() {
		return invalid("coordinates", "are out of range")
	}
	if a.RadiusKM < 0 {
		return invalid("radius_km", "must not be negative")
	}
	return nil
}

// NewRealtimeAlert assigns an id when missing and the creation time, then
// validates.
func NewRealtimeAlert(a RealtimeAlert) (RealtimeAlert, error) {
	if err := a.Validate(); err != nil {
		return RealtimeAlert{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AffectedProvinces == nil {
		a.AffectedProvinces = []string{}
	}
	a.CreatedAt = Now()
	return a, nil
}

// RawEvent represents an unprocessed message from the alert topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseRealtimeAlert decodes an inserted realtime alert row. The message
// timestamp stands in for created_at when the row omits it.
func ParseRealtimeAlert(raw RawEvent) (RealtimeAlert, error) {
	var a RealtimeAlert
	if err := json.Unmarshal(raw.Value, &a); err != nil {
		return RealtimeAlert{}, fmt.Errorf("parse realtime alert: %w", err)
	}
	if a.ID == "" {
		a.ID = string(raw.Key)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = raw.Timestamp.UTC()
	}
	if t, ok := ParseHazardType(string(a.AlertType)); ok {
		a.AlertType = t
	} else {
		a.AlertType = HazardOther
	}
	return a, nil
}

// AdmitRealtime decides whether an alert is pushed at all. It mirrors the
// channel filter on severity_level and drops inactive or expired rows.
func AdmitRealtime(a RealtimeAlert, minSeverity int, now time.Time) error {
	if a.SeverityLevel < minSeverity {
		return fmt.Errorf("%w: severity %d < %d", ErrBelowSeverityThreshold, a.SeverityLevel, minSeverity)
	}
	if !a.Active {
		return fmt.Errorf("%w: inactive", ErrExpired)
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return fmt.Errorf("%w: expired at %s", ErrExpired, a.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// Relevance is the per-subscriber decision for a realtime alert.
type Relevance struct {
	Relevant   bool
	DistanceKM *float64
	Reason     string
}

// RealtimeRelevance decides whether an alert concerns a subscriber. The alert
// is relevant when the subscriber lies within its radius, or when one of its
// affected provinces is among the subscriber's preferred areas.
func RealtimeRelevance(a RealtimeAlert, user *Geo, preferredAreas []string) Relevance {
	var rel Relevance
	if user != nil {
		d := Haversine(*user, a.Geo)
		rel.DistanceKM = &d
		if d <= a.RadiusKM {
			rel.Relevant = true
			rel.Reason = "radius"
			return rel
		}
	}
	if provinceMatch(a.AffectedProvinces, preferredAreas) {
		rel.Relevant = true
		rel.Reason = "area"
		return rel
	}
	rel.Reason = "out_of_range"
	return rel
}

func provinceMatch(affected, preferred []string) bool {
	if len(affected) == 0 || len(preferred) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(preferred))
	for _, p := range preferred {
		set[normalizeProvince(p)] = struct{}{}
	}
	for _, a := range affected {
		if _, ok := set[normalizeProvince(a)]; ok {
			return true
		}
	}
	return false
}

// normalizeProvince folds case and the optional "จังหวัด" prefix so
// "จังหวัดเชียงใหม่" and "เชียงใหม่" compare equal.
func normalizeProvince(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "จังหวัด")
	return strings.ToLower(strings.TrimSpace(s))
}

// Toast is the transient notification delivered to a subscriber.
type Toast struct {
	AlertID       string     `json:"alert_id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	AlertType     HazardType `json:"alert_type"`
	SeverityLevel int        `json:"severity_level"`
	DistanceKM    *float64   `json:"distance_km,omitempty"`
	Notify        bool       `json:"notify"`
	Sound         bool       `json:"sound"`
}

// NewToast builds the notification for a relevant alert under the
// subscriber's settings. The audible tone only plays for notified alerts
// of severity 4 or higher.
func NewToast(a RealtimeAlert, rel Relevance, s Settings) Toast {
	notify := s.NotificationsEnabled
	return Toast{
		AlertID:       a.ID,
		Title:         a.Title,
		Message:       a.Message,
		AlertType:     a.AlertType,
		SeverityLevel: a.SeverityLevel,
		DistanceKM:    rel.DistanceKM,
		Notify:        notify,
		Sound:         notify && s.SoundEnabled && a.SeverityLevel >= DefaultRealtimeMinSeverity,
	}
}
