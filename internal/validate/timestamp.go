package validate

import (
	"strings"
	"time"

	"etfpulse/internal/types"
)

// Timestamps outside this window are treated as malformed even when they
// parse. The fetched value comes off a scraped page, so a bad extraction can
// yield a syntactically valid but absurd date.
const (
	minPlausibleYear = 2000
	maxPlausibleYear = 2100
)

// Timestamp checks that the text parses under the single accepted canonical
// layout and lands in a plausible year range.
func Timestamp(text string) types.ValidationResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.InvalidResult("timestamp is empty")
	}

	ts, err := time.Parse(types.TimestampLayout, trimmed)
	if err != nil {
		return types.InvalidResult("timestamp %q does not match layout %q", trimmed, types.TimestampLayout)
	}

	if ts.Year() < minPlausibleYear || ts.Year() > maxPlausibleYear {
		return types.InvalidResult("timestamp year %d is outside the plausible range [%d, %d]",
			ts.Year(), minPlausibleYear, maxPlausibleYear)
	}

	return types.ValidResult()
}
