package models

import (
	"strings"
	"time"
)

// Weekday codes used in rule schedules, MON=0 through SUN=6.
const (
	WeekdayMon = "MON"
	WeekdayTue = "TUE"
	WeekdayWed = "WED"
	WeekdayThu = "THU"
	WeekdayFri = "FRI"
	WeekdaySat = "SAT"
	WeekdaySun = "SUN"
)

// weekdayCodes maps code to its MON-based index.
var weekdayCodes = map[string]int{
	WeekdayMon: 0,
	WeekdayTue: 1,
	WeekdayWed: 2,
	WeekdayThu: 3,
	WeekdayFri: 4,
	WeekdaySat: 5,
	WeekdaySun: 6,
}

// ValidWeekdays reports whether every entry in days is a recognized
// three-letter weekday code (case-insensitive).
func ValidWeekdays(days []string) bool {
	for _, day := range days {
		if _, ok := weekdayCodes[strings.ToUpper(day)]; !ok {
			return false
		}
	}
	return true
}

// WeekdayIndex returns the MON=0..SUN=6 index for t's weekday.
// time.Weekday counts from Sunday, so shift accordingly.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsScheduledDay reports whether t's weekday is listed in days.
func IsScheduledDay(t time.Time, days []string) bool {
	idx := WeekdayIndex(t)
	for _, day := range days {
		if code, ok := weekdayCodes[strings.ToUpper(day)]; ok && code == idx {
			return true
		}
	}
	return false
}

// WeekdayCode returns the three-letter code (MON, TUE, ...) for t's weekday.
func WeekdayCode(t time.Time) string {
	codes := []string{WeekdayMon, WeekdayTue, WeekdayWed, WeekdayThu, WeekdayFri, WeekdaySat, WeekdaySun}
	return codes[WeekdayIndex(t)]
}
