package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jitsports/sportsroom/internal/domain"
	"github.com/jitsports/sportsroom/internal/schedule"
)

func mustSchedule(t *testing.T, timezone string) *schedule.Schedule {
	t.Helper()
	s, err := schedule.New(timezone, 7)
	if err != nil {
		t.Fatalf("schedule.New(%q): %v", timezone, err)
	}
	return s
}

func TestSlotsPerWeekday(t *testing.T) {
	s := mustSchedule(t, "UTC")

	cases := []struct {
		date string
		want int
	}{
		{"2025-01-06", 2}, // monday
		{"2025-01-07", 2}, // tuesday
		{"2025-01-08", 2}, // wednesday
		{"2025-01-09", 2}, // thursday
		{"2025-01-10", 6}, // friday
		{"2025-01-11", 0}, // saturday
		{"2025-01-12", 0}, // sunday
	}

	for _, tc := range cases {
		day, err := s.ParseDate(tc.date)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tc.date, err)
		}
		if got := len(s.SlotsOn(day)); got != tc.want {
			t.Errorf("slots on %s = %d, want %d", tc.date, got, tc.want)
		}
	}
}

func TestParseSlotConvertsWallTimeToUTC(t *testing.T) {
	s := mustSchedule(t, "Asia/Kolkata")

	// 16:00 IST is 10:30 UTC; the offset is not a whole hour.
	got, err := s.ParseSlot("2025-01-06", "16:00")
	if err != nil {
		t.Fatalf("ParseSlot: %v", err)
	}
	want := time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseSlot = %s, want %s", got, want)
	}

	if !s.Contains(got) {
		t.Error("parsed catalogue slot should be contained in the schedule")
	}
}

func TestParseErrors(t *testing.T) {
	s := mustSchedule(t, "UTC")

	if _, err := s.ParseDate("06/01/2025"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("ParseDate = %v, want ErrInvalidInput", err)
	}
	if _, err := s.ParseSlot("2025-01-06", "4pm"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("ParseSlot = %v, want ErrInvalidInput", err)
	}
}

func TestContainsRejectsOffCatalogueInstants(t *testing.T) {
	s := mustSchedule(t, "UTC")

	if s.Contains(time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)) {
		t.Error("15:00 is not on the monday catalogue")
	}
	if s.Contains(time.Date(2025, 1, 11, 16, 0, 0, 0, time.UTC)) {
		t.Error("saturday has no slots")
	}
	if !s.Contains(time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)) {
		t.Error("14:30 friday is on the catalogue")
	}
}

func TestWithinHorizon(t *testing.T) {
	s := mustSchedule(t, "UTC")
	now := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		slot time.Time
		want bool
	}{
		{"earlier today", time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC), true},
		{"last day of window", time.Date(2025, 1, 14, 16, 0, 0, 0, time.UTC), true},
		{"first day past window", time.Date(2025, 1, 15, 16, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Date(2025, 1, 7, 16, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range cases {
		if got := s.WithinHorizon(now, tc.slot); got != tc.want {
			t.Errorf("%s: WithinHorizon = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDayBounds(t *testing.T) {
	s := mustSchedule(t, "Asia/Kolkata")

	day, err := s.ParseDate("2025-01-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	from, to := s.DayBounds(day)

	// Local midnight IST is 18:30 UTC the previous evening.
	if want := time.Date(2025, 1, 9, 18, 30, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("from = %s, want %s", from, want)
	}
	if want := to.Add(-24 * time.Hour); !want.Equal(from) {
		t.Errorf("bounds do not span exactly one day: %s .. %s", from, to)
	}
}

func TestUnknownTimezone(t *testing.T) {
	if _, err := schedule.New("Mars/Olympus", 7); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
