package model

import (
	"fmt"
	"strings"
)

// ChangeFrequency is the value of the <changefreq> element of a sitemap.
type ChangeFrequency string

// Change frequency constants, spelled as the sitemap protocol expects them.
const (
	// ChangeFrequencyUnknown means the frequency was not given or not recognised.
	// The <changefreq> element is omitted for such entries.
	ChangeFrequencyUnknown ChangeFrequency = ""
	// ChangeFrequencyAlways is used for pages that change on every access.
	ChangeFrequencyAlways ChangeFrequency = "always"
	// ChangeFrequencyHourly is used for pages that change every hour.
	ChangeFrequencyHourly ChangeFrequency = "hourly"
	// ChangeFrequencyDaily is used for pages that change every day.
	ChangeFrequencyDaily ChangeFrequency = "daily"
	// ChangeFrequencyWeekly is used for pages that change every week.
	ChangeFrequencyWeekly ChangeFrequency = "weekly"
	// ChangeFrequencyMonthly is used for pages that change every month.
	ChangeFrequencyMonthly ChangeFrequency = "monthly"
	// ChangeFrequencyYearly is used for pages that change every year.
	ChangeFrequencyYearly ChangeFrequency = "yearly"
	// ChangeFrequencyNever is used for archived pages.
	ChangeFrequencyNever ChangeFrequency = "never"
)

// String returns the lowercase protocol name of the frequency.
func (f ChangeFrequency) String() string {
	if f == ChangeFrequencyUnknown {
		return "unknown"
	}
	return string(f)
}

// IsValid returns true if f is one of the seven protocol values.
func (f ChangeFrequency) IsValid() bool {
	switch f {
	case ChangeFrequencyAlways, ChangeFrequencyHourly, ChangeFrequencyDaily,
		ChangeFrequencyWeekly, ChangeFrequencyMonthly, ChangeFrequencyYearly,
		ChangeFrequencyNever:
		return true
	default:
		return false
	}
}

// ParseChangeFrequency converts a string to ChangeFrequency.
// Matching is case-insensitive and ignores surrounding whitespace.
// An unrecognised value returns ChangeFrequencyUnknown and an error.
func ParseChangeFrequency(s string) (ChangeFrequency, error) {
	f := ChangeFrequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return ChangeFrequencyUnknown, fmt.Errorf("%w: %q", ErrInvalidChangeFrequency, s)
	}
	return f, nil
}

// ChangeFrequencies returns all valid change frequencies, most frequent first.
func ChangeFrequencies() []ChangeFrequency {
	return []ChangeFrequency{
		ChangeFrequencyAlways,
		ChangeFrequencyHourly,
		ChangeFrequencyDaily,
		ChangeFrequencyWeekly,
		ChangeFrequencyMonthly,
		ChangeFrequencyYearly,
		ChangeFrequencyNever,
	}
}
