// Package sleep classifies a local hour of day as sleeping or normal hours.
package sleep

// Nighttime runs from BedtimeHour (inclusive) through midnight to WakeHour (exclusive).
const (
	BedtimeHour = 21
	WakeHour    = 9
)

// State is the sleep classification of a local hour.
type State int

const (
	// Normal means people at the location are likely awake.
	Normal State = iota
	// Sleeping means the hour falls inside the nighttime window.
	Sleeping
)

// String returns a human readable name.
func (s State) String() string {
	if s == Sleeping {
		return "sleeping"
	}
	return "normal"
}

// Classify returns Sleeping for 21:00-08:59 and Normal for 09:00-20:59.
func Classify(localHour int) State {
	if localHour >= BedtimeHour || localHour < WakeHour {
		return Sleeping
	}
	return Normal
}
