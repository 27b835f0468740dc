package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VictimStatus is the self-reported condition of a person.
type VictimStatus string

const (
	VictimSafe      VictimStatus = "safe"
	VictimNeedsHelp VictimStatus = "needs_help"
	VictimInjured   VictimStatus = "injured"
	VictimMissing   VictimStatus = "missing"
	VictimTrapped   VictimStatus = "trapped"
)

// ParseVictimStatus accepts both snake_case and the hyphenated form.
func ParseVictimStatus(s string) (VictimStatus, bool) {
	v := VictimStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch v {
	case VictimSafe, VictimNeedsHelp, VictimInjured, VictimMissing, VictimTrapped:
		return v, true
	default:
		return "", false
	}
}

// VictimReport is a user-submitted status report. Append-only.
type VictimReport struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      VictimStatus `json:"status"`
	Description string       `json:"description,omitempty"`
	Geo         *Geo         `json:"geo,omitempty"`
	Contact     string       `json:"contact,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewVictimReport assigns an id and creation time, then validates.
func NewVictimReport(r VictimReport) (VictimReport, error) {
	status, ok := ParseVictimStatus(string(r.Status))
	if !ok {
		return VictimReport{}, invalid("status", "must be one of safe, needs_help, injured, missing, trapped")
	}
	r.Status = status
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return VictimReport{}, invalid("name", "is required")
	}
	if r.Geo != nil && !r.Geo.Valid() {
		return VictimReport{}, invalid("geo", "is out of range")
	}
	r.ID = uuid.NewString()
	r.CreatedAt = Now()
	return r, nil
}

// IncidentReport is a user-submitted incident with optional photos.
type IncidentReport struct {
	ID          string     `json:"id"`
	Type        HazardType `json:"type"`
	Severity    int        `json:"severity"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Geo         *Geo       `json:"geo,omitempty"`
	ReporterID  string     `json:"reporter_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewIncidentReport assigns an id and timestamps, then validates.
func NewIncidentReport(r IncidentReport) (IncidentReport, error) {
	t, ok := ParseHazardType(string(r.Type))
	if !ok {
		return IncidentReport{}, invalid("type", "is unknown")
	}
	r.Type = t
	if r.Severity < 1 || r.Severity > 5 {
		return IncidentReport{}, invalid("severity", "must be between 1 and 5")
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return IncidentReport{}, invalid("description", "is required")
	}
	if r.Geo != nil && !r.Geo.Valid() {
		return IncidentReport{}, invalid("geo", "is out of range")
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	r.ID = uuid.NewString()
	r.CreatedAt = Now()
	r.UpdatedAt = r.CreatedAt
	return r, nil
}
