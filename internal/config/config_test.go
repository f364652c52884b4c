package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessHoursConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := BusinessHoursConfig{
		StartHour: 9,
		EndHour:   17,
		Weekdays:  []time.Weekday{time.Monday},
		Timezone:  "UTC",
	}

	testCases := []struct {
		name    string
		mutate  func(cfg *BusinessHoursConfig)
		wantErr bool
	}{
		{
			name:    "AcceptsDefaultWindow",
			mutate:  func(cfg *BusinessHoursConfig) {},
			wantErr: false,
		},
		{
			name:    "RejectsStartEqualEnd",
			mutate:  func(cfg *BusinessHoursConfig) { cfg.EndHour = cfg.StartHour },
			wantErr: true,
		},
		{
			name:    "RejectsStartAfterEnd",
			mutate:  func(cfg *BusinessHoursConfig) { cfg.StartHour, cfg.EndHour = 17, 9 },
			wantErr: true,
		},
		{
			name:    "RejectsNegativeHour",
			mutate:  func(cfg *BusinessHoursConfig) { cfg.StartHour = -1 },
			wantErr: true,
		},
		{
			name:    "RejectsHourPast23",
			mutate:  func(cfg *BusinessHoursConfig) { cfg.EndHour = 24 },
			wantErr: true,
		},
		{
			name:    "RejectsEmptyWeekdays",
			mutate:  func(cfg *BusinessHoursConfig) { cfg.Weekdays = nil },
			wantErr: true,
		},
		{
			name:    "RejectsUnknownTimezone",
			mutate:  func(cfg *BusinessHoursConfig) { cfg.Timezone = "Mars/Olympus_Mons" },
			wantErr: true,
		},
		{
			name:    "AcceptsNamedZone",
			mutate:  func(cfg *BusinessHoursConfig) { cfg.Timezone = "Europe/London" },
			wantErr: false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			testCase.mutate(&cfg)

			err := cfg.Validate()
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseWeekdays(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    []time.Weekday
		wantErr bool
	}{
		{
			name:  "StandardWorkWeek",
			input: "Mon,Tue,Wed,Thu,Fri",
			want:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		},
		{
			name:  "FullNamesAndSpaces",
			input: " Monday , friday ",
			want:  []time.Weekday{time.Monday, time.Friday},
		},
		{
			name:  "DeduplicatesRepeats",
			input: "Mon,mon,MON",
			want:  []time.Weekday{time.Monday},
		},
		{
			name:    "RejectsUnknownDay",
			input:   "Mon,Funday",
			wantErr: true,
		},
		{
			name:  "SkipsEmptyEntries",
			input: "Mon,,Tue",
			want:  []time.Weekday{time.Monday, time.Tuesday},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseWeekdays(testCase.input)
			if testCase.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestJiraConfig_RequestTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30*time.Second, JiraConfig{}.RequestTimeout())
	assert.Equal(t, 10*time.Second, JiraConfig{RequestTimeoutSeconds: 10}.RequestTimeout())
}

func TestSyncConfig_Interval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15*time.Minute, SyncConfig{IntervalMinutes: 15}.Interval())
}
