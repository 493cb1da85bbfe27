package utils

import (
	"math"
	"strings"
	"time"

	"car-rental-client/internal/domain"
)

const day = 24 * time.Hour

// ParseCalendarDate converts a yyyy-mm-dd form value into a UTC midnight.
// A full ISO timestamp is accepted and truncated to its calendar day.
// Blank or malformed input returns nil so that pricing yields the zero quote.
func ParseCalendarDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	ts, err := domain.ParseTimestamp(s)
	if err != nil {
		return nil
	}
	y, m, d := ts.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// DayCount returns ceil(|end-start| in days), with a same calendar day
// counted as one day. Absent dates give 0.
func DayCount(start, end *time.Time) int {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return 0
	}
	diff := end.Sub(*start)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(float64(diff) / float64(day)))
	if days > 0 {
		return days
	}
	if sameCalendarDay(*start, *end) {
		return 1
	}
	return 0
}

// Quote computes the advisory day count and total for a rental
func Quote(start, end *time.Time, ratePerDay domain.Money) domain.Quote {
	days := DayCount(start, end)
	if days == 0 {
		return domain.Quote{}
	}
	return domain.Quote{DayCount: days, Total: ratePerDay.Times(days)}
}

// QuoteDates is Quote over raw form values
func QuoteDates(startStr, endStr string, ratePerDay domain.Money) domain.Quote {
	return Quote(ParseCalendarDate(startStr), ParseCalendarDate(endStr), ratePerDay)
}

// FormatWireDate renders a calendar date the way the booking request expects
func FormatWireDate(t time.Time) string {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(domain.WireTimeLayout)
}

func sameCalendarDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
