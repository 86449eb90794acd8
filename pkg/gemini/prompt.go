package gemini

import "fmt"

// zipPrompt asks for the place and zone of a single US ZIP code.
func zipPrompt(zip string) string {
	return fmt.Sprintf(`Identify the United States ZIP code %s.

Return the primary city name, the two-letter USPS state abbreviation and the
IANA timezone identifier (for example "America/Chicago") that applies at that
ZIP code's location.

Rules:
- If %s is not an assigned US ZIP code, return empty strings and confidence "low".
- Use the zone people at that location actually observe. Most of Arizona is
  "America/Phoenix"; the Navajo Nation observes "America/Denver".
- Never return a UTC offset such as "UTC-5" in place of an IANA identifier.`, zip, zip)
}
