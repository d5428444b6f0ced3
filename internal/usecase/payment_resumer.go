package usecase

import (
	"context"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/pkg/logger"
)

// ResumedPayment is what is known after returning from a gateway redirect.
// Booking is set when the record's reference and contact still match a booking.
type ResumedPayment struct {
	Record  *entity.RecoveryRecord
	Booking *entity.Booking
	View    StatusView
}

// BookingFinder re-identifies a booking from its reference and contact
type BookingFinder interface {
	FindByReference(ctx context.Context, reference, phoneNumber, email string) (*entity.Booking, error)
}

// PaymentResumer picks a redirected payment back up from the recovery record
type PaymentResumer struct {
	keeper *RecoveryKeeper
	poller *PaymentStatusPoller
	finder BookingFinder
	logger logger.Logger
}

// NewPaymentResumer creates a new payment resumer. finder may be nil.
func NewPaymentResumer(keeper *RecoveryKeeper, poller *PaymentStatusPoller, finder BookingFinder, logger logger.Logger) *PaymentResumer {
	return &PaymentResumer{
		keeper: keeper,
		poller: poller,
		finder: finder,
		logger: logger,
	}
}

// Resume reads the record and checks its transaction. With no record (or no
// reference) the view is NoReference. A reference passed in, such as one from
// the gateway's return URL, wins over the stored one. The record is cleared
// only after a check that succeeded, so a failed check can be retried.
func (r *PaymentResumer) Resume(ctx context.Context, reference string) (*ResumedPayment, error) {
	record, err := r.keeper.Recall(ctx)
	if err != nil {
		r.logger.Warn("Recovery record unavailable", "error", err)
	}

	if reference == "" && record != nil {
		reference = record.TransactionReference
	}
	if record != nil {
		r.logger.Info("Resuming payment",
			"bookingId", record.ID,
			"bookingReference", record.BookingReference,
			"transactionReference", reference)
	}

	resumed := &ResumedPayment{Record: record, Booking: r.findBooking(ctx, record)}
	view, err := r.poller.Check(ctx, reference)
	resumed.View = view
	if err == nil && record != nil {
		r.keeper.Forget(ctx, record)
	}
	return resumed, err
}

func (r *PaymentResumer) findBooking(ctx context.Context, record *entity.RecoveryRecord) *entity.Booking {
	if r.finder == nil || record == nil || record.BookingReference == "" {
		return nil
	}
	if record.PhoneNumber == "" && record.Email == "" {
		return nil
	}
	booking, err := r.finder.FindByReference(ctx, record.BookingReference, record.PhoneNumber, record.Email)
	if err != nil {
		r.logger.Warn("Could not re-identify booking",
			"bookingReference", record.BookingReference,
			"error", err)
		return nil
	}
	return booking
}
