package schedule

import (
	"fmt"
	"time"

	"github.com/jitsports/sportsroom/internal/domain"
)

// SlotTime is a wall-clock slot start on the facility's daily schedule.
type SlotTime struct {
	Hour   int
	Minute int
}

// Schedule is the fixed weekday slot catalogue shared by all facilities.
// Slots are wall times in the facility's location; bookings are stored as
// the corresponding UTC instants.
type Schedule struct {
	loc         *time.Location
	weekday     map[time.Weekday][]SlotTime
	horizonDays int
}

// New builds the default catalogue: two late-afternoon slots Monday through
// Thursday, a longer Friday block, closed on weekends.
func New(timezone string, horizonDays int) (*Schedule, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load schedule timezone: %w", err)
	}

	short := []SlotTime{{16, 0}, {16, 30}}
	long := []SlotTime{{14, 0}, {14, 30}, {15, 0}, {15, 30}, {16, 0}, {16, 30}}

	return &Schedule{
		loc: loc,
		weekday: map[time.Weekday][]SlotTime{
			time.Monday:    short,
			time.Tuesday:   short,
			time.Wednesday: short,
			time.Thursday:  short,
			time.Friday:    long,
		},
		horizonDays: horizonDays,
	}, nil
}

// ParseDate interprets a YYYY-MM-DD string as midnight in the schedule's
// location.
func (s *Schedule) ParseDate(value string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return d, nil
}

// ParseSlot resolves a date and wall-clock slot string ("15:04") to the UTC
// instant the booking occupies.
func (s *Schedule) ParseSlot(dateValue, slotValue string) (time.Time, error) {
	date, err := s.ParseDate(dateValue)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("15:04", slotValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: slot must be HH:MM", domain.ErrInvalidInput)
	}
	local := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, s.loc)
	return local.UTC(), nil
}

// SlotsOn returns the day's catalogue as ascending UTC instants. Empty on
// days the room is closed.
func (s *Schedule) SlotsOn(date time.Time) []time.Time {
	local := date.In(s.loc)
	times := s.weekday[local.Weekday()]

	slots := make([]time.Time, 0, len(times))
	for _, st := range times {
		slot := time.Date(local.Year(), local.Month(), local.Day(), st.Hour, st.Minute, 0, 0, s.loc)
		slots = append(slots, slot.UTC())
	}
	return slots
}

// Contains reports whether slotStart is one of the catalogue instants for
// its own day.
func (s *Schedule) Contains(slotStart time.Time) bool {
	for _, slot := range s.SlotsOn(slotStart) {
		if slot.Equal(slotStart) {
			return true
		}
	}
	return false
}

// WithinHorizon reports whether slotStart falls inside the rolling booking
// window starting today.
func (s *Schedule) WithinHorizon(now, slotStart time.Time) bool {
	localNow := now.In(s.loc)
	dayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, s.horizonDays)

	localSlot := slotStart.In(s.loc)
	return !localSlot.Before(dayStart) && localSlot.Before(dayEnd)
}

// DayBounds returns the UTC instants bracketing a local calendar day, for
// range queries over bookings.
func (s *Schedule) DayBounds(date time.Time) (time.Time, time.Time) {
	local := date.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
