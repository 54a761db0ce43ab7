package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newsdesk/ingest-router/internal/models"
)

func TestScheduleValidate(t *testing.T) {
	testCases := []struct {
		name     string
		schedule *models.Schedule
		wantErr  string
	}{
		{
			name:     "nil schedule is valid",
			schedule: nil,
		},
		{
			name: "valid full schedule",
			schedule: &models.Schedule{
				DayOfWeek:     []string{"MON", "FRI"},
				HourOfDayFrom: "08:00:00",
				HourOfDayTo:   "17:00:00",
				TimeZone:      "Europe/Berlin",
			},
		},
		{
			name:     "empty day_of_week",
			schedule: &models.Schedule{DayOfWeek: []string{}, HourOfDayFrom: "08:00:00"},
			wantErr:  "schedule when defined can't be empty",
		},
		{
			name:     "invalid weekday code",
			schedule: &models.Schedule{DayOfWeek: []string{"MON", "XYZ"}},
			wantErr:  "invalid values for day of week",
		},
		{
			name: "malformed from time",
			schedule: &models.Schedule{
				DayOfWeek:     []string{"MON"},
				HourOfDayFrom: "8am",
			},
			wantErr: "hour_of_day_from",
		},
		{
			name: "to without from is rejected",
			schedule: &models.Schedule{
				DayOfWeek:   []string{"MON"},
				HourOfDayTo: "17:00:00",
			},
			wantErr: "hour_of_day_from",
		},
		{
			name: "from after to",
			schedule: &models.Schedule{
				DayOfWeek:     []string{"MON"},
				HourOfDayFrom: "18:00:00",
				HourOfDayTo:   "09:00:00",
			},
			wantErr: "from time should be less than to time",
		},
		{
			name: "unknown time zone",
			schedule: &models.Schedule{
				DayOfWeek: []string{"MON"},
				TimeZone:  "Mars/Olympus_Mons",
			},
			wantErr: "unknown time zone",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.schedule.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
			assert.True(t, models.IsValidation(err))
		})
	}
}

func TestScheduleNormalize(t *testing.T) {
	var nilSchedule *models.Schedule
	assert.Nil(t, nilSchedule.Normalize())

	// A schedule carrying only a time zone restricts nothing.
	assert.Nil(t, (&models.Schedule{TimeZone: "Europe/Prague"}).Normalize())

	s := (&models.Schedule{DayOfWeek: []string{"MON"}}).Normalize()
	assert.NotNil(t, s)
	assert.Equal(t, "UTC", s.TimeZone)

	s = (&models.Schedule{DayOfWeek: []string{"MON"}, TimeZone: "Europe/Prague"}).Normalize()
	assert.Equal(t, "Europe/Prague", s.TimeZone)
}
