package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
	"inzira-booking-client/pkg/utils"
)

// BookingFallbackMessage is shown when the server gave no usable message
const BookingFallbackMessage = "Failed to create booking"

// BookingOrchestrator validates and submits reservations
type BookingOrchestrator struct {
	bookingRepo repository.BookingRepository
	pointRepo   repository.RoutePointRepository
	seats       SeatCounter
	maxSeats    int
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// NewBookingOrchestrator creates a new booking orchestrator. seats may be nil.
func NewBookingOrchestrator(
	bookingRepo repository.BookingRepository,
	pointRepo repository.RoutePointRepository,
	seats SeatCounter,
	maxSeats int,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *BookingOrchestrator {
	return &BookingOrchestrator{
		bookingRepo: bookingRepo,
		pointRepo:   pointRepo,
		seats:       seats,
		maxSeats:    maxSeats,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateBooking validates req against the schedule snapshot and submits it.
// Server rejections come back as BookingError; nothing is retried.
func (o *BookingOrchestrator) CreateBooking(ctx context.Context, schedule *entity.Schedule, req entity.BookingRequest) (*entity.Booking, error) {
	variant := "authenticated"
	if req.IsGuest() {
		variant = "guest"
	}

	if err := o.validate(ctx, schedule, &req); err != nil {
		if domain.IsValidation(err) {
			o.metrics.Bookings.WithLabelValues(variant, "invalid").Inc()
		} else {
			o.metrics.Bookings.WithLabelValues(variant, "error").Inc()
		}
		return nil, err
	}

	o.logger.Info("Submitting booking",
		"variant", variant,
		"scheduleId", req.ScheduleID,
		"seats", req.NumberOfSeats)

	start := time.Now()
	var booking *entity.Booking
	var err error
	if req.IsGuest() {
		booking, err = o.bookingRepo.CreateGuest(ctx, req)
	} else {
		booking, err = o.bookingRepo.CreateAuthenticated(ctx, req)
	}
	o.metrics.RequestDuration.WithLabelValues("booking").Observe(time.Since(start).Seconds())

	if err != nil {
		o.metrics.Bookings.WithLabelValues(variant, "rejected").Inc()
		o.metrics.ErrorsCount.WithLabelValues("booking").Inc()
		o.logger.Error("Booking failed", "variant", variant, "scheduleId", req.ScheduleID, "error", err)

		if remote, ok := domain.AsRemote(err); ok {
			return nil, domain.BookingError{
				Msg:        domain.UserMessage(err, BookingFallbackMessage),
				StatusCode: remote.StatusCode,
				Err:        err,
			}
		}
		return nil, domain.NetworkError{Op: "create booking", Msg: BookingFallbackMessage, Err: err}
	}

	if booking == nil || booking.ID <= 0 {
		o.metrics.Bookings.WithLabelValues(variant, "rejected").Inc()
		o.logger.Error("Booking reply carried no booking id", "variant", variant, "scheduleId", req.ScheduleID)
		return nil, domain.BookingError{Msg: BookingFallbackMessage}
	}

	o.completeBooking(booking, schedule, req)
	o.metrics.Bookings.WithLabelValues(variant, "created").Inc()
	o.logger.Info("Booking created",
		"bookingId", booking.ID,
		"reference", booking.BookingReference,
		"totalAmount", booking.TotalAmount)

	return booking, nil
}

func (o *BookingOrchestrator) validate(ctx context.Context, schedule *entity.Schedule, req *entity.BookingRequest) error {
	if schedule == nil || schedule.ID <= 0 {
		return domain.ValidationError{Field: "scheduleId", Msg: "Please select a schedule"}
	}
	if req.ScheduleID == 0 {
		req.ScheduleID = schedule.ID
	}
	if req.ScheduleID != schedule.ID {
		return domain.ValidationError{Field: "scheduleId", Msg: "booking does not match the selected schedule"}
	}
	if !schedule.IsOpen() {
		return domain.ValidationError{Field: "scheduleId", Msg: fmt.Sprintf("schedule is %s", strings.ToLower(schedule.Status))}
	}

	if err := validateIdentity(req); err != nil {
		return err
	}

	available := schedule.AvailableSeats
	if o.seats != nil {
		available = o.seats.EffectiveAvailableSeats(schedule)
	}
	limit := SeatCap(available, o.maxSeats)
	switch {
	case req.NumberOfSeats < 1:
		return domain.ValidationError{Field: "numberOfSeats", Msg: "must be at least 1"}
	case limit == 0:
		return domain.ValidationError{Field: "numberOfSeats", Msg: "No seats available"}
	case req.NumberOfSeats > limit:
		return domain.ValidationError{Field: "numberOfSeats", Msg: fmt.Sprintf("at most %d seat(s) can be booked", limit)}
	}

	if req.PickupPointID <= 0 {
		return domain.ValidationError{Field: "pickupPointId", Msg: "Please select a pickup point"}
	}
	if req.DropPointID <= 0 {
		return domain.ValidationError{Field: "dropPointId", Msg: "Please select a drop point"}
	}

	origin, destination := schedule.Origin(), schedule.Destination()
	ok, err := o.pointInDistrict(ctx, schedule.AgencyRoute.PickupPoints, origin.ID, req.PickupPointID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ValidationError{Field: "pickupPointId", Msg: fmt.Sprintf("pickup point must be in %s", districtLabel(origin))}
	}
	ok, err = o.pointInDistrict(ctx, schedule.AgencyRoute.DropPoints, destination.ID, req.DropPointID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ValidationError{Field: "dropPointId", Msg: fmt.Sprintf("drop point must be in %s", districtLabel(destination))}
	}
	return nil
}

func validateIdentity(req *entity.BookingRequest) error {
	if !req.IsGuest() {
		if req.CustomerID <= 0 {
			return domain.ValidationError{Field: "customerId", Msg: "Please sign in to book", Err: domain.ErrNotAuthenticated}
		}
		return nil
	}

	g := &entity.GuestDetails{
		FirstName:   strings.TrimSpace(req.Guest.FirstName),
		LastName:    strings.TrimSpace(req.Guest.LastName),
		PhoneNumber: strings.TrimSpace(req.Guest.PhoneNumber),
		Email:       strings.TrimSpace(req.Guest.Email),
	}
	req.Guest = g

	switch {
	case g.FirstName == "":
		return domain.ValidationError{Field: "firstName", Msg: "First name is required"}
	case g.LastName == "":
		return domain.ValidationError{Field: "lastName", Msg: "Last name is required"}
	case g.PhoneNumber == "":
		return domain.ValidationError{Field: "phoneNumber", Msg: "Phone number is required"}
	}
	if g.Email != "" {
		if _, err := mail.ParseAddress(g.Email); err != nil {
			return domain.ValidationError{Field: "email", Msg: "Invalid email address", Err: err}
		}
	}
	return nil
}

// pointInDistrict checks pointID against the schedule's own point list, or
// the district's points when the snapshot carries none.
func (o *BookingOrchestrator) pointInDistrict(ctx context.Context, points []entity.RoutePoint, districtID, pointID int64) (bool, error) {
	if len(points) == 0 {
		if o.pointRepo == nil {
			return false, nil
		}
		fetched, err := o.pointRepo.ListByDistrict(ctx, districtID)
		if err != nil {
			o.logger.Error("Failed to load route points", "districtId", districtID, "error", err)
			return false, domain.NetworkError{Op: "list route points", Msg: BookingFallbackMessage, Err: err}
		}
		points = fetched
	}

	for _, p := range points {
		if p.ID != pointID {
			continue
		}
		return p.District == nil || p.District.ID == districtID, nil
	}
	return false, nil
}

// completeBooking fills fields the server may omit and checks the total
func (o *BookingOrchestrator) completeBooking(booking *entity.Booking, schedule *entity.Schedule, req entity.BookingRequest) {
	if booking.NumberOfSeats == 0 {
		booking.NumberOfSeats = req.NumberOfSeats
	}
	if booking.Schedule.ID == 0 {
		booking.Schedule = *schedule
	}
	if booking.Status == "" {
		booking.Status = entity.BookingPending
	}
	if req.IsGuest() && booking.Customer.FirstName == "" {
		booking.Customer = entity.Customer{
			FirstName:   req.Guest.FirstName,
			LastName:    req.Guest.LastName,
			Email:       req.Guest.Email,
			PhoneNumber: req.Guest.PhoneNumber,
		}
	}

	expected := utils.TotalAmount(schedule.Price(), booking.NumberOfSeats)
	switch {
	case booking.TotalAmount == 0:
		booking.TotalAmount = expected
	case !utils.SameAmount(booking.TotalAmount, expected):
		o.logger.Warn("Booking total differs from price x seats",
			"bookingId", booking.ID,
			"totalAmount", booking.TotalAmount,
			"expected", expected)
	}
}

func districtLabel(d entity.District) string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("district %d", d.ID)
}
