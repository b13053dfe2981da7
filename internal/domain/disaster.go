package domain

// DisasterType is the closed classification set for report text.
type DisasterType string

const (
	DisasterEarthquake DisasterType = "earthquake"
	DisasterFlood      DisasterType = "flood"
	DisasterFire       DisasterType = "fire"
	DisasterStorm      DisasterType = "storm"
	DisasterDrought    DisasterType = "drought"
	DisasterLandslide  DisasterType = "landslide"
	DisasterVolcano    DisasterType = "volcano"
	DisasterTsunami    DisasterType = "tsunami"
	DisasterPandemic   DisasterType = "pandemic"
	DisasterConflict   DisasterType = "conflict"
	DisasterUnknown    DisasterType = "unknown"
)

// DisasterTypes lists the concrete types in declaration order. The order is
// the classification tie-break: the first type with a keyword hit wins.
// DisasterUnknown is the absence of a classification and is not listed.
var DisasterTypes = []DisasterType{
	DisasterEarthquake,
	DisasterFlood,
	DisasterFire,
	DisasterStorm,
	DisasterDrought,
	DisasterLandslide,
	DisasterVolcano,
	DisasterTsunami,
	DisasterPandemic,
	DisasterConflict,
}

// ParseDisasterType validates a label against the closed set. Unrecognized
// labels map to DisasterUnknown, which is how oracle responses outside the
// enumeration are rejected.
func ParseDisasterType(label string) DisasterType {
	for _, t := range DisasterTypes {
		if string(t) == label {
			return t
		}
	}
	return DisasterUnknown
}
