// Package domain models disaster hazards, alerts, and the user-facing records
// around them (victim and incident reports, damage assessments, surveys,
// preferences, articles).
//
// # Hazard Records
//
// A hazard is a single reading with a type tag, a WGS-84 coordinate, and a
// type-specific intensity measure stored in [Hazard.Magnitude]:
//
//	earthquake:  Richter magnitude (e.g. 6.2)
//	heavyrain:   rain intensity percentage reported by a rain sensor, 0-100
//	flood:       water level on the 1-5 warning scale
//	others:      severity level 1-5
//
// # Relevance Rules
//
// Whether a hazard is shown to a user depends on its distance from the user
// and a disjunction of (threshold, radius) pairs per hazard type, held in a
// [RuleTable]. Both bounds are inclusive. Distances are great-circle
// distances computed with [Haversine] on a sphere of radius 6371 km.
//
//	earthquake:  magnitude >= 3.0 within 800 km, or >= 1.0 within 0.5 km
//	heavyrain:   intensity >= 50% within 0.1 km, or >= 70% within 1 km
//	flood:       level >= 3 within 10 km, or >= 4 within 50 km
//	others:      severity >= 4 within 100 km, or >= 2 within 10 km
//
// # Realtime Alerts
//
// Realtime alerts are inserted by an external ingestion job and arrive on the
// alert topic. Only alerts with severity level 4 or higher are pushed to
// subscribers. A subscriber receives an alert when it lies within the alert's
// own radius, or when the alert names a province the subscriber follows.
//
// # Messages
//
// User-facing messages are Thai. Headlines read
// "<type text> ที่ <location> (ห่างประมาณ <distance>)", where the distance is
// rounded metres below 1 km and kilometres with one decimal otherwise.
package domain
