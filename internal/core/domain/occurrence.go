package domain

import (
	"slices"
	"time"
)

// GraceWindow is the tolerance used to decide whether a computed occurrence
// already counts as past. It keeps a check that lands just after the exact
// instant from re-firing the same occurrence.
const GraceWindow = 500 * time.Millisecond

// NextOccurrence computes the next UTC instant at which the alarm must fire,
// strictly after now plus the grace window. The second return value is false
// when no occurrence remains (disabled alarm, or a one-shot whose date has
// passed).
//
// All date/time combination happens in the alarm's declared zone so DST
// transitions resolve there, and only the final instant is compared in UTC.
func (a Alarm) NextOccurrence(now time.Time) (time.Time, bool) {
	if !a.Enabled {
		return time.Time{}, false
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		// NewAlarm guarantees a resolvable zone; treat a broken one as
		// "no next occurrence" rather than guessing a zone.
		return time.Time{}, false
	}

	localNow := now.In(loc)
	today := DateOf(localNow)
	cutoff := now.Add(GraceWindow)

	combine := func(d Date) time.Time {
		return time.Date(d.Year, d.Month, d.Day, a.Hour, a.Minute, a.Second, 0, loc).UTC()
	}

	// Earliest date the alarm may ring.
	startDate := today
	if !a.StartDate.IsZero() {
		startDate = a.StartDate
	}
	if !a.StartDate.IsZero() && a.StartDate.Before(today) && !a.Repeats() {
		// One-off alarm whose day has passed; it must not roll forward.
		return time.Time{}, false
	}

	if a.Repeats() {
		// Scan a full week from the later of today and the start date; a
		// 7-day window covers every weekday, so only a window anchored on
		// today can come up empty.
		scanFrom := today
		if today.Before(startDate) {
			scanFrom = startDate
		}
		for offset := 0; offset < 7; offset++ {
			candidate := scanFrom.AddDays(offset)
			if !slices.Contains(a.RepeatDays, candidate.Weekday()) {
				continue
			}
			if occurrence := combine(candidate); occurrence.After(cutoff) {
				return occurrence, true
			}
		}
		// Every candidate this week has passed; wrap to the earliest repeat
		// day, always strictly in the future (a zero delta means next week).
		delta := (a.RepeatDays[0] - today.Weekday() + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return combine(today.AddDays(delta)), true
	}

	occurrence := combine(startDate)
	if !occurrence.After(cutoff) {
		if !a.StartDate.IsZero() {
			// Explicitly dated one-off that already fired today.
			return time.Time{}, false
		}
		// Undated one-offs roll forward to tomorrow at the same local time;
		// the scheduler enforces one-shot semantics by disabling the alarm
		// after its first firing.
		occurrence = combine(today.AddDays(1))
	}
	return occurrence, true
}
