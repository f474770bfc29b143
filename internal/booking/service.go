package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jitsports/sportsroom/internal/clock"
	"github.com/jitsports/sportsroom/internal/domain"
	"github.com/jitsports/sportsroom/internal/repository"
	"github.com/jitsports/sportsroom/internal/schedule"
	"github.com/jitsports/sportsroom/pkg/events"
	"github.com/jitsports/sportsroom/pkg/logger"
)

// Service is the slot reservation engine. Collision prevention lives in the
// store's uniqueness constraint; this layer validates against the catalogue,
// drives the reserve transaction, and fires notifications after commit.
type Service interface {
	ListFacilities(ctx context.Context) ([]domain.Facility, error)
	ListAvailability(ctx context.Context, facilitySlug, date string) ([]domain.SlotAvailability, error)
	Reserve(ctx context.Context, identityID int64, facilitySlug, date, slot string) (*domain.Booking, error)
	Cancel(ctx context.Context, identityID, bookingID int64) error
	ListBookings(ctx context.Context, identityID int64) (*domain.BookingList, error)
}

type service struct {
	bookings   repository.BookingRepository
	facilities repository.FacilityRepository
	identities repository.IdentityRepository
	schedule   *schedule.Schedule
	clock      clock.Clock
	eventBus   events.Publisher
}

func NewService(
	bookings repository.BookingRepository,
	facilities repository.FacilityRepository,
	identities repository.IdentityRepository,
	sched *schedule.Schedule,
	clk clock.Clock,
	eventBus events.Publisher,
) Service {
	return &service{
		bookings:   bookings,
		facilities: facilities,
		identities: identities,
		schedule:   sched,
		clock:      clk,
		eventBus:   eventBus,
	}
}

func (s *service) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	facilities, err := s.facilities.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, nil
}

func (s *service) ListAvailability(ctx context.Context, facilitySlug, date string) ([]domain.SlotAvailability, error) {
	facility, err := s.facilities.FindBySlug(ctx, facilitySlug)
	if err != nil {
		return nil, fmt.Errorf("find facility: %w", err)
	}
	if facility == nil {
		return nil, domain.ErrNotFound
	}

	day, err := s.schedule.ParseDate(date)
	if err != nil {
		return nil, err
	}

	from, to := s.schedule.DayBounds(day)
	booked, err := s.bookings.BookedSlots(ctx, facility.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("booked slots: %w", err)
	}

	taken := make(map[int64]bool, len(booked))
	for _, b := range booked {
		taken[b.Unix()] = true
	}

	slots := s.schedule.SlotsOn(day)
	availability := make([]domain.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		availability = append(availability, domain.SlotAvailability{
			SlotStart: slot,
			Available: !taken[slot.Unix()],
		})
	}
	return availability, nil
}

func (s *service) Reserve(ctx context.Context, identityID int64, facilitySlug, date, slot string) (*domain.Booking, error) {
	facility, err := s.facilities.FindBySlug(ctx, facilitySlug)
	if err != nil {
		return nil, fmt.Errorf("find facility: %w", err)
	}
	if facility == nil {
		return nil, domain.ErrNotFound
	}

	slotStart, err := s.schedule.ParseSlot(date, slot)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !s.schedule.Contains(slotStart) {
		return nil, domain.ErrInvalidSlot
	}
	if slotStart.Before(now) {
		return nil, domain.ErrInvalidSlot
	}
	if !s.schedule.WithinHorizon(now, slotStart) {
		return nil, domain.ErrInvalidSlot
	}

	booking, err := s.bookings.Reserve(ctx, identityID, facility.ID, slotStart)
	if err != nil {
		return nil, err
	}
	booking.Facility = facility.Name

	s.publishConfirmed(ctx, booking)

	logger.InfoContext(ctx, "Booking confirmed",
		"booking_id", booking.ID,
		"facility", facility.Slug,
		"slot_start", booking.SlotStart,
	)
	return booking, nil
}

func (s *service) Cancel(ctx context.Context, identityID, bookingID int64) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return domain.ErrNotFound
	}
	if booking.IdentityID != identityID {
		return domain.ErrNotOwner
	}
	if booking.Status == domain.BookingCancelled {
		return domain.ErrAlreadyCancelled
	}

	now := s.clock.Now()
	if !booking.SlotStart.After(now) {
		return domain.ErrTooLate
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID, now)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if !cancelled {
		return domain.ErrAlreadyCancelled
	}

	s.publishCancelled(ctx, booking, now)

	logger.InfoContext(ctx, "Booking cancelled", "booking_id", bookingID)
	return nil
}

func (s *service) ListBookings(ctx context.Context, identityID int64) (*domain.BookingList, error) {
	bookings, err := s.bookings.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	now := s.clock.Now()
	list := &domain.BookingList{
		Upcoming: []domain.Booking{},
		Past:     []domain.Booking{},
	}

	// Input is ascending by slot start; past is presented newest first.
	for _, b := range bookings {
		if b.SlotStart.After(now) && b.Status != domain.BookingCancelled {
			list.Upcoming = append(list.Upcoming, b)
		} else {
			list.Past = append([]domain.Booking{b}, list.Past...)
		}
	}
	return list, nil
}

func (s *service) publishConfirmed(ctx context.Context, booking *domain.Booking) {
	email := s.ownerEmail(ctx, booking.IdentityID)
	if email == "" {
		return
	}

	event := events.BookingConfirmedEvent{
		BookingID:   booking.ID,
		Email:       email,
		Facility:    booking.Facility,
		SlotStart:   booking.SlotStart,
		ConfirmedAt: booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingConfirmed, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking confirmed event", "error", err, "booking_id", booking.ID)
	}
}

func (s *service) publishCancelled(ctx context.Context, booking *domain.Booking, at time.Time) {
	email := s.ownerEmail(ctx, booking.IdentityID)
	if email == "" {
		return
	}

	event := events.BookingCancelledEvent{
		BookingID:   booking.ID,
		Email:       email,
		Facility:    booking.Facility,
		SlotStart:   booking.SlotStart,
		CancelledAt: at,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking cancelled event", "error", err, "booking_id", booking.ID)
	}
}

// ownerEmail resolves the recipient for notifications. Failures here only
// cost the email, never the booking.
func (s *service) ownerEmail(ctx context.Context, identityID int64) string {
	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil || identity == nil {
		logger.WarnContext(ctx, "Could not resolve booking owner for notification", "identity_id", identityID, "error", err)
		return ""
	}
	return identity.Email
}
