package domain

import (
	"fmt"
	"math"
	"sort"
)

// MessageLocationUnavailable is shown when the filter has no user coordinate.
const MessageLocationUnavailable = "ไม่สามารถระบุตำแหน่งของคุณได้ กรุณาอนุญาตการเข้าถึงตำแหน่ง"

// RelevanceRule admits a hazard whose magnitude is at least MinMagnitude and
// whose distance is at most MaxDistanceKM.
type RelevanceRule struct {
	MinMagnitude  float64 `json:"min_magnitude"`
	MaxDistanceKM float64 `json:"max_distance_km"`
}

// Admits reports whether the rule accepts a reading. Both bounds are inclusive.
func (r RelevanceRule) Admits(magnitude, distanceKM float64) bool {
	return magnitude >= r.MinMagnitude && distanceKM <= r.MaxDistanceKM
}

// RuleTable maps each hazard type to the disjunction of rules that admit it.
// Types without an entry fall back to the HazardOther rules.
type RuleTable map[HazardType][]RelevanceRule

// DefaultRules returns the production rule table.
func DefaultRules() RuleTable {
	severity := []RelevanceRule{{MinMagnitude: 4, MaxDistanceKM: 100}, {MinMagnitude: 2, MaxDistanceKM: 10}}
	return RuleTable{
		HazardEarthquake: {{MinMagnitude: 3.0, MaxDistanceKM: 800}, {MinMagnitude: 1.0, MaxDistanceKM: 0.5}},
		HazardHeavyRain:  {{MinMagnitude: 50, MaxDistanceKM: 0.1}, {MinMagnitude: 70, MaxDistanceKM: 1}},
		HazardFlood:      {{MinMagnitude: 3, MaxDistanceKM: 10}, {MinMagnitude: 4, MaxDistanceKM: 50}},
		HazardStorm:      severity,
		HazardStrongWind: severity,
		HazardLandslide:  severity,
		HazardWildfire:   severity,
		HazardTsunami:    severity,
		HazardOther:      severity,
	}
}

// Admits reports whether any rule for the hazard type accepts the reading.
func (t RuleTable) Admits(hazardType HazardType, magnitude, distanceKM float64) bool {
	rules, ok := t[hazardType]
	if !ok {
		rules = t[HazardOther]
	}
	for _, r := range rules {
		if r.Admits(magnitude, distanceKM) {
			return true
		}
	}
	return false
}

// FilterOptions narrows the filter beyond the rule table.
type FilterOptions struct {
	// EnabledTypes, when non-nil, drops hazard types mapped to false or absent.
	EnabledTypes map[HazardType]bool
	// MaxDistanceKM, when positive, drops hazards farther than this.
	MaxDistanceKM float64
}

// FilterResult is the ordered outcome of the proximity filter.
type FilterResult struct {
	Hazards  []ScoredHazard `json:"hazards"`
	Headline *ScoredHazard  `json:"headline,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// Filter admits hazards relevant to the user and orders them nearest first.
// A nil user coordinate yields an empty result carrying a user-facing message.
func Filter(user *Geo, hazards []Hazard, rules RuleTable, opts FilterOptions) FilterResult {
	if user == nil {
		return FilterResult{Hazards: []ScoredHazard{}, Message: MessageLocationUnavailable}
	}

	admitted := make([]ScoredHazard, 0, len(hazards))
	for _, h := range hazards {
		if opts.EnabledTypes != nil && !opts.EnabledTypes[h.Type] {
			continue
		}
		d := Haversine(*user, h.Geo)
		if opts.MaxDistanceKM > 0 && d > opts.MaxDistanceKM {
			continue
		}
		if !rules.Admits(h.Type, h.Magnitude, d) {
			continue
		}
		admitted = append(admitted, ScoredHazard{Hazard: h, DistanceKM: d})
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		if admitted[i].DistanceKM != admitted[j].DistanceKM {
			return admitted[i].DistanceKM < admitted[j].DistanceKM
		}
		return admitted[i].ID < admitted[j].ID
	})

	result := FilterResult{Hazards: admitted}
	if len(admitted) > 0 {
		headline := admitted[0]
		result.Headline = &headline
		result.Message = HeadlineMessage(headline)
	}
	return result
}

// HeadlineMessage composes the banner text for the nearest hazard.
func HeadlineMessage(h ScoredHazard) string {
	location := h.Location
	if location == "" {
		location = fmt.Sprintf("%.4f, %.4f", h.Geo.Lat, h.Geo.Lon)
	}
	return fmt.Sprintf("%s ที่ %s (ห่างประมาณ %s)", h.Type.Text(), location, FormatDistance(h.DistanceKM))
}

// FormatDistance renders a distance in Thai: whole metres below 1 km,
// kilometres with one decimal otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d เมตร", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f กม.", km)
}
