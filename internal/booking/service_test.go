package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jitsports/sportsroom/internal/booking"
	"github.com/jitsports/sportsroom/internal/clock"
	"github.com/jitsports/sportsroom/internal/domain"
	"github.com/jitsports/sportsroom/internal/schedule"
	"github.com/jitsports/sportsroom/pkg/events"
)

// ---------- Mocks ----------

// mockBookingRepo mirrors the store's partial unique index: at most one held
// or confirmed booking per (facility, slot start) key, enforced under a lock
// so concurrent Reserve calls race the way transactions do.
type mockBookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
	active   map[string]int64
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{
		nextID:   1,
		bookings: make(map[int64]*domain.Booking),
		active:   make(map[string]int64),
	}
}

func slotKey(facilityID int64, slotStart time.Time) string {
	return fmt.Sprintf("%d|%d", facilityID, slotStart.Unix())
}

func (m *mockBookingRepo) Reserve(_ context.Context, identityID, facilityID int64, slotStart time.Time) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slotKey(facilityID, slotStart)
	if _, taken := m.active[key]; taken {
		return nil, domain.ErrSlotTaken
	}

	b := &domain.Booking{
		ID:         m.nextID,
		IdentityID: identityID,
		FacilityID: facilityID,
		SlotStart:  slotStart,
		Status:     domain.BookingConfirmed,
		CreatedAt:  time.Now(),
	}
	m.nextID++
	m.bookings[b.ID] = b
	m.active[key] = b.ID

	copy := *b
	return &copy, nil
}

func (m *mockBookingRepo) FindByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	copy := *b
	return &copy, nil
}

func (m *mockBookingRepo) Cancel(_ context.Context, id int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.Status == domain.BookingCancelled {
		return false, nil
	}
	b.Status = domain.BookingCancelled
	cancelled := at
	b.CancelledAt = &cancelled
	delete(m.active, slotKey(b.FacilityID, b.SlotStart))
	return true, nil
}

func (m *mockBookingRepo) BookedSlots(_ context.Context, facilityID int64, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var slots []time.Time
	for _, id := range m.active {
		b := m.bookings[id]
		if b.FacilityID == facilityID && !b.SlotStart.Before(from) && b.SlotStart.Before(to) {
			slots = append(slots, b.SlotStart)
		}
	}
	return slots, nil
}

func (m *mockBookingRepo) ListByIdentity(_ context.Context, identityID int64) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list []domain.Booking
	for _, b := range m.bookings {
		if b.IdentityID == identityID {
			list = append(list, *b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SlotStart.Before(list[j].SlotStart) })
	return list, nil
}

type mockFacilityRepo struct {
	facilities []domain.Facility
}

func (m *mockFacilityRepo) List(context.Context) ([]domain.Facility, error) {
	return m.facilities, nil
}

func (m *mockFacilityRepo) FindBySlug(_ context.Context, slug string) (*domain.Facility, error) {
	for i := range m.facilities {
		if m.facilities[i].Slug == slug {
			return &m.facilities[i], nil
		}
	}
	return nil, nil
}

type mockIdentityRepo struct {
	emails map[int64]string
}

func (m *mockIdentityRepo) GetOrCreateByEmail(_ context.Context, email string) (*domain.Identity, error) {
	return nil, errors.New("not used")
}

func (m *mockIdentityRepo) FindByEmail(context.Context, string) (*domain.Identity, error) {
	return nil, nil
}

func (m *mockIdentityRepo) FindByID(_ context.Context, id int64) (*domain.Identity, error) {
	email, ok := m.emails[id]
	if !ok {
		return nil, nil
	}
	return &domain.Identity{ID: id, Email: email, Provisioned: true}, nil
}

type mockPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	m.payloads = append(m.payloads, data)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// ---------- Fixtures ----------

type fixture struct {
	repo      *mockBookingRepo
	publisher *mockPublisher
	service   booking.Service
	sched     *schedule.Schedule
}

// newFixture pins the clock to Wednesday 2025-01-08 10:00 UTC with a UTC
// schedule, so 2025-01-10 is a Friday inside the booking window.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	sched, err := schedule.New("UTC", 7)
	if err != nil {
		t.Fatalf("schedule.New: %v", err)
	}

	repo := newMockBookingRepo()
	publisher := &mockPublisher{}
	facilities := &mockFacilityRepo{facilities: []domain.Facility{
		{ID: 1, Slug: "badminton", Name: "Badminton Court", MaxPlayers: 4, DurationMinutes: 30},
		{ID: 2, Slug: "table-tennis", Name: "Table Tennis", MaxPlayers: 4, DurationMinutes: 30},
	}}
	identities := &mockIdentityRepo{emails: map[int64]string{
		1: "a@x.com",
		2: "b@x.com",
	}}

	svc := booking.NewService(
		repo,
		facilities,
		identities,
		sched,
		clock.Fixed(time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)),
		publisher,
	)
	return &fixture{repo: repo, publisher: publisher, service: svc, sched: sched}
}

// ---------- Tests ----------

func TestReserveConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 16
	results := make(chan error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(identityID int64) {
			defer wg.Done()
			_, err := f.service.Reserve(ctx, identityID, "badminton", "2025-01-10", "14:00")
			results <- err
		}(int64(i%2 + 1))
	}
	wg.Wait()
	close(results)

	var won, taken int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrSlotTaken):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
	if taken != callers-1 {
		t.Errorf("slot taken errors = %d, want %d", taken, callers-1)
	}
}

func TestReserveSameSlotDifferentFacility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Reserve(ctx, 1, "badminton", "2025-01-10", "14:00"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := f.service.Reserve(ctx, 2, "table-tennis", "2025-01-10", "14:00"); err != nil {
		t.Fatalf("same slot on another facility must succeed, got %v", err)
	}
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		facility string
		date     string
		slot     string
		want     error
	}{
		{"unknown facility", "squash", "2025-01-10", "14:00", domain.ErrNotFound},
		{"slot not on catalogue", "badminton", "2025-01-10", "13:00", domain.ErrInvalidSlot},
		{"friday slot on a monday", "badminton", "2025-01-13", "14:00", domain.ErrInvalidSlot},
		{"weekend", "badminton", "2025-01-11", "16:00", domain.ErrInvalidSlot},
		{"in the past", "badminton", "2025-01-07", "16:00", domain.ErrInvalidSlot},
		{"beyond horizon", "badminton", "2025-01-17", "14:00", domain.ErrInvalidSlot},
		{"malformed date", "badminton", "10-01-2025", "14:00", domain.ErrInvalidInput},
		{"malformed slot", "badminton", "2025-01-10", "2pm", domain.ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Reserve(ctx, 1, tc.facility, tc.date, tc.slot)
			if !errors.Is(err, tc.want) {
				t.Errorf("Reserve = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReservePublishesConfirmation(t *testing.T) {
	f := newFixture(t)

	b, err := f.service.Reserve(context.Background(), 1, "badminton", "2025-01-10", "14:30")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.Facility != "Badminton Court" {
		t.Errorf("facility name = %q, want %q", b.Facility, "Badminton Court")
	}

	if len(f.publisher.subjects) != 1 || f.publisher.subjects[0] != events.BookingConfirmed {
		t.Fatalf("expected one %s event, got %v", events.BookingConfirmed, f.publisher.subjects)
	}
	ev := f.publisher.payloads[0].(events.BookingConfirmedEvent)
	if ev.Email != "a@x.com" || ev.BookingID != b.ID {
		t.Errorf("event payload mismatch: %+v", ev)
	}
}

func TestCancelFreesSlotForOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Reserve(ctx, 1, "badminton", "2025-01-10", "14:00")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := f.service.Cancel(ctx, 1, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.service.Reserve(ctx, 2, "badminton", "2025-01-10", "14:00"); err != nil {
		t.Fatalf("slot should be free after cancellation, got %v", err)
	}
}

func TestCancelGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Reserve(ctx, 1, "badminton", "2025-01-10", "14:00")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := f.service.Cancel(ctx, 2, b.ID); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("cancel by stranger = %v, want ErrNotOwner", err)
	}
	if err := f.service.Cancel(ctx, 1, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cancel missing booking = %v, want ErrNotFound", err)
	}

	if err := f.service.Cancel(ctx, 1, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := f.service.Cancel(ctx, 1, b.ID); !errors.Is(err, domain.ErrAlreadyCancelled) {
		t.Errorf("double cancel = %v, want ErrAlreadyCancelled", err)
	}
}

func TestCancelTooLateForStartedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Slot already underway relative to the fixed clock.
	past, err := f.repo.Reserve(ctx, 1, 1, time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	if err := f.service.Cancel(ctx, 1, past.ID); !errors.Is(err, domain.ErrTooLate) {
		t.Errorf("Cancel = %v, want ErrTooLate", err)
	}
}

func TestListAvailabilityReflectsBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Reserve(ctx, 1, "badminton", "2025-01-10", "15:00")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	availability, err := f.service.ListAvailability(ctx, "badminton", "2025-01-10")
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(availability) != 6 {
		t.Fatalf("friday slots = %d, want 6", len(availability))
	}

	booked := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	for _, slot := range availability {
		want := !slot.SlotStart.Equal(booked)
		if slot.Available != want {
			t.Errorf("slot %s available = %v, want %v", slot.SlotStart, slot.Available, want)
		}
	}

	// Cancellation frees the slot in the listing.
	if err := f.service.Cancel(ctx, 1, b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	availability, err = f.service.ListAvailability(ctx, "badminton", "2025-01-10")
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	for _, slot := range availability {
		if !slot.Available {
			t.Errorf("slot %s still unavailable after cancel", slot.SlotStart)
		}
	}
}

func TestListAvailabilityClosedDay(t *testing.T) {
	f := newFixture(t)

	availability, err := f.service.ListAvailability(context.Background(), "badminton", "2025-01-11")
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(availability) != 0 {
		t.Errorf("saturday slots = %d, want 0", len(availability))
	}
}

func TestListBookingsSplitsUpcomingAndPast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two historical slots, seeded directly, oldest first.
	if _, err := f.repo.Reserve(ctx, 1, 1, time.Date(2025, 1, 6, 16, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := f.repo.Reserve(ctx, 1, 1, time.Date(2025, 1, 7, 16, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := f.service.Reserve(ctx, 1, "badminton", "2025-01-10", "14:00"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	cancelled, err := f.service.Reserve(ctx, 1, "badminton", "2025-01-10", "16:30")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := f.service.Cancel(ctx, 1, cancelled.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	list, err := f.service.ListBookings(ctx, 1)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}

	if len(list.Upcoming) != 1 {
		t.Fatalf("upcoming = %d, want 1", len(list.Upcoming))
	}
	if got := list.Upcoming[0].SlotStart; !got.Equal(time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("upcoming slot = %s", got)
	}

	// Past holds the two finished slots plus the cancelled one, newest first.
	if len(list.Past) != 3 {
		t.Fatalf("past = %d, want 3", len(list.Past))
	}
	for i := 1; i < len(list.Past); i++ {
		if list.Past[i].SlotStart.After(list.Past[i-1].SlotStart) {
			t.Errorf("past not in descending order: %s before %s", list.Past[i-1].SlotStart, list.Past[i].SlotStart)
		}
	}
}
