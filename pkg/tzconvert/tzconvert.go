// Package tzconvert computes wall-clock snapshots for IANA timezones.
// Instants are kept as time.Time; conversion to a zone happens only for display.
package tzconvert

import (
	"errors"
	"fmt"
	"math"
	"time"
	_ "time/tzdata" // used when the host has no zoneinfo
)

// ErrNoTimezone is returned by Load for an empty identifier.
var ErrNoTimezone = errors.New("no timezone identifier")

// Snapshot is the wall clock of one zone at one instant.
type Snapshot struct {
	Local       time.Time
	IsDST       bool
	OffsetHours float64 // e.g. -5 for EST, -4 for EDT, 5.5 for IST
}

// Load resolves an IANA identifier such as "America/New_York".
// Unlike time.LoadLocation it rejects "" and "Local", which would silently
// resolve to UTC or the machine's own zone.
func Load(timezoneID string) (*time.Location, error) {
	if timezoneID == "" {
		return nil, ErrNoTimezone
	}
	if timezoneID == "Local" {
		return nil, fmt.Errorf("loading timezone %q: not an IANA identifier", timezoneID)
	}
	loc, err := time.LoadLocation(timezoneID)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezoneID, err)
	}
	return loc, nil
}

// At returns the snapshot of loc at instant t.
func At(t time.Time, loc *time.Location) Snapshot {
	local := t.In(loc)
	_, offset := local.Zone()
	return Snapshot{
		Local:       local,
		IsDST:       local.IsDST(),
		OffsetHours: float64(offset) / 3600,
	}
}

// FormatOffset renders an offset in hours for the UTC chip.
// Examples:
//   - -5 returns "UTC-5"
//   - 0 returns "UTC+0"
//   - 5.5 returns "UTC+5:30"
//   - -9.5 returns "UTC-9:30"
func FormatOffset(hours float64) string {
	sign := "+"
	if hours < 0 {
		sign = "-"
	}
	minutes := int(math.Round(math.Abs(hours) * 60))
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("UTC%s%d", sign, h)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, h, m)
}

// Clock formats the time of day the way the card shows it, e.g. "03:04:05 PM".
func (s Snapshot) Clock() string {
	return s.Local.Format("03:04:05 PM")
}

// Date formats the calendar date as month/day/year, e.g. "07/04/2025".
func (s Snapshot) Date() string {
	return s.Local.Format("01/02/2006")
}

// Offset is FormatOffset applied to the snapshot.
func (s Snapshot) Offset() string {
	return FormatOffset(s.OffsetHours)
}
