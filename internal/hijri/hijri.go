// Package hijri wraps Gregorian/Hijri calendar conversion for Hawl
// tracking. A Hawl is one lunar year (~354 days): the completion date is
// the same Hijri day and month in the following Hijri year.
package hijri

import (
	"fmt"
	"math"
	"time"

	gohijri "github.com/hablullah/go-hijri"
)

// lunarYearDays is the fallback Hawl length when a date falls outside the
// Umm al-Qura tables.
const lunarYearDays = 354

// CompletionDate returns the Hawl completion date for a start date: the
// same Umm al-Qura calendar day one Hijri year later.
func CompletionDate(start time.Time) time.Time {
	h, err := gohijri.CreateUmmAlQuraDate(start)
	if err != nil {
		return start.AddDate(0, 0, lunarYearDays)
	}

	next := gohijri.UmmAlQuraDate{Year: h.Year + 1, Month: h.Month, Day: h.Day}
	completion := next.ToGregorian()

	// Guard against table-edge conversions collapsing the period.
	if !completion.After(start) {
		return start.AddDate(0, 0, lunarYearDays)
	}
	return completion
}

// Year returns the Hijri (Umm al-Qura) year a date falls in, or 0 when the
// date is outside the supported range.
func Year(t time.Time) int {
	h, err := gohijri.CreateUmmAlQuraDate(t)
	if err != nil {
		return 0
	}
	return int(h.Year)
}

// Format renders a date in its Hijri representation, e.g. "1446-09-21 AH".
// Returns an empty string when conversion is not possible.
func Format(t time.Time) string {
	h, err := gohijri.CreateUmmAlQuraDate(t)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d AH", h.Year, h.Month, h.Day)
}

// DaysRemaining returns the whole days from now until the completion date,
// rounded up; zero or negative means the Hawl has completed.
func DaysRemaining(now, completion time.Time) int {
	diff := completion.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}
