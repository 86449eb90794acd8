// Package tzname maps IANA timezone identifiers to the names people in the
// United States use for them.
package tzname

// Unknown is returned for zones outside the US table.
const Unknown = "unknown/other"

var usNames = map[string]string{
	"America/New_York":    "Eastern Time",
	"America/Chicago":     "Central Time",
	"America/Denver":      "Mountain Time",
	"America/Phoenix":     "Mountain Time (Arizona)",
	"America/Los_Angeles": "Pacific Time",
	"America/Anchorage":   "Alaska Time",
	"Pacific/Honolulu":    "Hawaii-Aleutian Time",
}

// USName returns the US region name for timezoneID, or Unknown.
func USName(timezoneID string) string {
	if name, ok := usNames[timezoneID]; ok {
		return name
	}
	return Unknown
}
