package schedule

import "time"

// IsDue reports whether the rule matches now at minute granularity.
// Seconds never take part in the comparison: a tick landing anywhere inside
// the matching minute fires, a tick that skips the minute misses it.
func IsDue(r Rule, now time.Time) bool {
	return now.Day() == r.DayOfMonth && now.Hour() == r.Hour && now.Minute() == r.Minute
}

// NextOccurrence returns the first instant matching r strictly after now.
// If this month's occurrence is now or earlier, the result falls in the next
// calendar month; December rolls over into January of the next year.
// Days past the end of a short month clamp to its last day, so a rule for
// the 31st fires on Apr 30 and on Feb 28 (29 in leap years).
func NextOccurrence(r Rule, now time.Time) time.Time {
	now = now.Truncate(time.Minute)

	occ := occurrenceIn(r, now.Year(), now.Month(), now.Location())
	if occ.After(now) {
		return occ
	}

	year, month := now.Year(), now.Month()+1
	if month > time.December {
		year, month = year+1, time.January
	}

	return occurrenceIn(r, year, month, now.Location())
}

// InitialOccurrence is NextOccurrence relaxed to allow the result to equal
// now exactly. It is used once, at creation time, to decide whether the
// first firing lands in the current month or the next one.
func InitialOccurrence(r Rule, now time.Time) time.Time {
	now = now.Truncate(time.Minute)

	occ := occurrenceIn(r, now.Year(), now.Month(), now.Location())
	if occ.Before(now) {
		return NextOccurrence(r, now)
	}

	return occ
}

func occurrenceIn(r Rule, year int, month time.Month, loc *time.Location) time.Time {
	day := min(r.DayOfMonth, daysIn(year, month))
	return time.Date(year, month, day, r.Hour, r.Minute, 0, 0, loc)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
