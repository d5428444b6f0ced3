package usecase

import (
	"context"
	"strings"
	"time"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
)

const (
	BookingLoadFallbackMessage = "Failed to load booking"
	BookingNotFoundMessage     = "Booking not found or verification failed"
	BookingContactMismatch     = "Booking reference does not match the provided contact information"
)

// GetBooking loads an existing booking, e.g. to pay for it after an
// abandoned or failed payment
func (o *BookingOrchestrator) GetBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	if id <= 0 {
		return nil, domain.ValidationError{Field: "bookingId", Msg: "No booking specified"}
	}

	start := time.Now()
	booking, err := o.bookingRepo.Get(ctx, id)
	o.metrics.RequestDuration.WithLabelValues("booking_lookup").Observe(time.Since(start).Seconds())
	if err != nil {
		o.metrics.ErrorsCount.WithLabelValues("booking_lookup").Inc()
		o.logger.Error("Failed to load booking", "bookingId", id, "error", err)
		return nil, lookupError(err, domain.UserMessage(err, BookingLoadFallbackMessage))
	}
	if booking == nil || booking.ID <= 0 {
		return nil, domain.BookingError{Msg: "Booking not found"}
	}
	return booking, nil
}

// FindByReference re-identifies a booking from its reference. The phone
// number, or the email when no phone number is given, must equal the one on
// the booking exactly.
func (o *BookingOrchestrator) FindByReference(ctx context.Context, reference, phoneNumber, email string) (*entity.Booking, error) {
	reference = strings.TrimSpace(reference)
	phoneNumber = strings.TrimSpace(phoneNumber)
	email = strings.TrimSpace(email)

	switch {
	case reference == "":
		return nil, domain.ValidationError{Field: "bookingReference", Msg: "Please enter a booking reference"}
	case phoneNumber == "" && email == "":
		return nil, domain.ValidationError{Field: "contact", Msg: "Please enter your phone number or email"}
	}

	start := time.Now()
	booking, err := o.bookingRepo.GetByReference(ctx, reference)
	o.metrics.RequestDuration.WithLabelValues("booking_lookup").Observe(time.Since(start).Seconds())
	if err != nil {
		o.metrics.ErrorsCount.WithLabelValues("booking_lookup").Inc()
		o.logger.Error("Booking lookup failed", "bookingReference", reference, "error", err)
		return nil, lookupError(err, BookingNotFoundMessage)
	}
	if booking == nil || booking.ID <= 0 {
		return nil, domain.BookingError{Msg: BookingNotFoundMessage}
	}

	var match bool
	if phoneNumber != "" {
		match = booking.Customer.PhoneNumber == phoneNumber
	} else {
		match = booking.Customer.Email == email
	}
	if !match {
		o.logger.Warn("Booking contact does not match", "bookingReference", reference)
		return nil, domain.BookingError{Msg: BookingContactMismatch}
	}
	return booking, nil
}

func lookupError(err error, msg string) error {
	if remote, ok := domain.AsRemote(err); ok {
		return domain.BookingError{Msg: msg, StatusCode: remote.StatusCode, Err: err}
	}
	return domain.NetworkError{Op: "load booking", Msg: msg, Err: err}
}
