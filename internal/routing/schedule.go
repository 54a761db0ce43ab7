package routing

import (
	"strings"
	"time"

	"github.com/newsdesk/ingest-router/internal/models"
)

// toBoundarySlack widens an hour_of_day_to bound whose seconds read ":00" by
// one minute, so "20:00:00" stays active through 20:00:59. This reproduces
// the boundary behavior schemes in production were authored against; keep it
// here, in one place, should it ever be corrected.
const toBoundarySlack = time.Minute

const (
	dayStart = "00:00:00"
	dayEnd   = "23:59:59"
)

// ScheduleActive reports whether a rule's schedule is active at nowUTC.
// An absent or effectively-empty schedule is always active. The instant is
// converted to the schedule's time zone; the rule is active when the
// converted weekday is listed and from <= now < to.
//
// Schedules are validated at authoring time; evaluation assumes well-formed
// bounds and zone names.
func ScheduleActive(schedule *models.Schedule, nowUTC time.Time) bool {
	schedule = schedule.Normalize()
	if schedule == nil {
		return true
	}

	now := nowUTC.In(schedule.Location())

	from := schedule.HourOfDayFrom
	if from == "" {
		from = dayStart
	}
	fromTime := atTimeOfDay(now, from)

	var toTime time.Time
	if schedule.HourOfDayTo != "" {
		toTime = atTimeOfDay(now, schedule.HourOfDayTo)
		if strings.HasSuffix(schedule.HourOfDayTo, "00") {
			toTime = toTime.Add(toBoundarySlack)
		}
	} else {
		// End of day, excluding midnight itself: at that point a new
		// day has already begun.
		toTime = atTimeOfDay(now, dayEnd).Add(toBoundarySlack)
	}

	return models.IsScheduledDay(now, schedule.DayOfWeek) &&
		!now.Before(fromTime) && now.Before(toTime)
}

// atTimeOfDay pins an HH:MM:SS string onto t's date in t's location.
func atTimeOfDay(t time.Time, hhmmss string) time.Time {
	parsed, err := time.Parse("15:04:05", hhmmss)
	if err != nil {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, t.Location())
}
