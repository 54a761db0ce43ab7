package models

import (
	"time"
)

// timeOfDayLayout is the wire format for schedule bounds.
const timeOfDayLayout = "15:04:05"

// Schedule restricts a routing rule to certain weekdays and a time-of-day
// window, interpreted in the schedule's time zone.
type Schedule struct {
	DayOfWeek     []string `json:"day_of_week,omitempty"`
	HourOfDayFrom string   `json:"hour_of_day_from,omitempty"`
	HourOfDayTo   string   `json:"hour_of_day_to,omitempty"`
	TimeZone      string   `json:"time_zone,omitempty"`
}

// Normalize collapses a schedule that carries nothing but time-zone
// information to nil, since such a schedule places no restriction at all.
// Clients submitting an empty schedule object still get the time_zone key
// populated by schema defaulting, which is how these come to exist.
// A surviving schedule with no time zone gets UTC.
func (s *Schedule) Normalize() *Schedule {
	if s == nil {
		return nil
	}
	if len(s.DayOfWeek) == 0 && s.HourOfDayFrom == "" && s.HourOfDayTo == "" {
		return nil
	}
	if s.TimeZone == "" {
		s.TimeZone = "UTC"
	}
	return s
}

// Validate checks a schedule at authoring time. Evaluation assumes schedules
// passed validation, so every failure mode is caught here.
func (s *Schedule) Validate() error {
	if s == nil {
		return nil
	}
	if len(s.DayOfWeek) == 0 {
		return Invalidf("schedule when defined can't be empty")
	}
	if !ValidWeekdays(s.DayOfWeek) {
		return Invalidf("invalid values for day of week")
	}

	var from, to time.Time
	if s.HourOfDayFrom != "" || s.HourOfDayTo != "" {
		var err error
		if from, err = time.Parse(timeOfDayLayout, s.HourOfDayFrom); err != nil {
			return Invalidf("invalid value for hour_of_day_from (expected HH:MM:SS)")
		}
		if s.HourOfDayTo != "" {
			if to, err = time.Parse(timeOfDayLayout, s.HourOfDayTo); err != nil {
				return Invalidf("invalid value for hour_of_day_to (expected HH:MM:SS)")
			}
			if from.After(to) {
				return Invalidf("from time should be less than to time")
			}
		}
	}

	if s.TimeZone != "" {
		if _, err := time.LoadLocation(s.TimeZone); err != nil {
			return Invalidf("unknown time zone %s", s.TimeZone)
		}
	}
	return nil
}

// Location returns the schedule's time zone, defaulting to UTC. Schedules
// are validated at authoring time, so a load failure here means the zone
// database changed under us; fall back to UTC rather than guess.
func (s *Schedule) Location() *time.Location {
	if s == nil || s.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
