package domain

import "time"

// Stats summarises dashboard counters.
type Stats struct {
	ActiveAlertsByType       map[HazardType]int   `json:"active_alerts_by_type"`
	VictimReportsByStatus    map[VictimStatus]int `json:"victim_reports_by_status"`
	IncidentReports          int                  `json:"incident_reports"`
	ActiveRealtimeAlerts     int                  `json:"active_realtime_alerts"`
	PendingDamageAssessments int                  `json:"pending_damage_assessments"`
	GeneratedAt              time.Time            `json:"generated_at"`
}
