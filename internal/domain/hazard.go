package domain

import "time"

// HazardType tags alerts and hazard readings.
type HazardType string

const (
	HazardEarthquake HazardType = "earthquake"
	HazardHeavyRain  HazardType = "heavyrain"
	HazardFlood      HazardType = "flood"
	HazardStorm      HazardType = "storm"
	HazardStrongWind HazardType = "strongwind"
	HazardLandslide  HazardType = "landslide"
	HazardWildfire   HazardType = "wildfire"
	HazardTsunami    HazardType = "tsunami"
	HazardOther      HazardType = "other"
)

var hazardText = map[HazardType]string{
	HazardEarthquake: "แผ่นดินไหว",
	HazardHeavyRain:  "ฝนตกหนัก",
	HazardFlood:      "น้ำท่วม",
	HazardStorm:      "พายุ",
	HazardStrongWind: "ลมแรง",
	HazardLandslide:  "ดินถล่ม",
	HazardWildfire:   "ไฟป่า",
	HazardTsunami:    "สึนามิ",
	HazardOther:      "ภัยพิบัติ",
}

// HazardTypes lists every known hazard type in display order.
func HazardTypes() []HazardType {
	return []HazardType{
		HazardEarthquake, HazardHeavyRain, HazardFlood, HazardStorm, HazardStrongWind,
		HazardLandslide, HazardWildfire, HazardTsunami, HazardOther,
	}
}

// ParseHazardType normalizes a type tag. Unknown tags map to HazardOther and
// ok is false.
func ParseHazardType(s string) (t HazardType, ok bool) {
	t = HazardType(s)
	if _, known := hazardText[t]; known {
		return t, true
	}
	return HazardOther, false
}

// Text returns the Thai display text for the hazard type.
func (t HazardType) Text() string {
	if s, ok := hazardText[t]; ok {
		return s
	}
	return hazardText[HazardOther]
}

// Hazard is a single alert or sensor reading considered by the proximity filter.
type Hazard struct {
	ID         string     `json:"id"`
	Type       HazardType `json:"type"`
	Geo        Geo        `json:"geo"`
	Location   string     `json:"location,omitempty"`
	Magnitude  float64    `json:"magnitude"`
	ObservedAt time.Time  `json:"observed_at"`
}

// ScoredHazard is a hazard admitted by the filter together with its distance
// from the user.
type ScoredHazard struct {
	Hazard
	DistanceKM float64 `json:"distance_km"`
}
