package schedule

import (
	"testing"
	"time"
)

func TestIsNonClassDay(t *testing.T) {
	cases := []struct {
		name string
		date time.Time
		want bool
	}{
		{"new year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"fiestas patrias", time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC), true},
		{"winter recess start", time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC), true},
		{"winter recess end", time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), true},
		{"day after recess", time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC), false},
		{"ordinary monday", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), false},
		{"time of day ignored", time.Date(2025, 5, 21, 18, 30, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNonClassDay(tc.date); got != tc.want {
				t.Errorf("IsNonClassDay(%s) = %v, want %v", tc.date.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}
