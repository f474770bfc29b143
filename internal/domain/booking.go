package domain

import "time"

type BookingStatus string

const (
	BookingHeld      BookingStatus = "held"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Facility is a bookable room or court. The catalogue is seeded externally;
// the core never mutates it.
type Facility struct {
	ID              int64  `json:"id"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	MaxPlayers      int    `json:"max_players"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Booking occupies one (facility, slot start) key. SlotStart is the UTC
// instant of the slot, which together with the facility identifies the
// (facility, slot, date) tuple. At most one booking per key may be held or
// confirmed at a time; a partial unique index in the store enforces this.
type Booking struct {
	ID          int64         `json:"id"`
	IdentityID  int64         `json:"identity_id"`
	FacilityID  int64         `json:"facility_id"`
	Facility    string        `json:"facility"`
	SlotStart   time.Time     `json:"slot_start"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}

// SlotAvailability annotates one catalogue slot for a given day.
type SlotAvailability struct {
	SlotStart time.Time `json:"slot_start"`
	Available bool      `json:"available"`
}

// BookingList splits an identity's bookings for the profile view: upcoming
// holds active bookings with a future start, ascending; past holds everything
// else, descending.
type BookingList struct {
	Upcoming []Booking `json:"upcoming"`
	Past     []Booking `json:"past"`
}
