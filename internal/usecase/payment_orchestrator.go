package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
)

// PaymentFallbackMessage is shown when the gateway gave no usable message
const PaymentFallbackMessage = "Payment failed. Please try again."

// DefaultCurrency is used when PaymentOptions leaves Currency empty
const DefaultCurrency = "RWF"

var mobileMoneyPhone = regexp.MustCompile(`^07[0-9]{8}$`)

var supportedCurrencies = map[string]bool{"RWF": true, "USD": true, "EUR": true}

// PaymentState is the payment flow state
type PaymentState string

const (
	PaymentSelectingMethod            PaymentState = "SELECTING_METHOD"
	PaymentSubmitting                 PaymentState = "SUBMITTING"
	PaymentRedirecting                PaymentState = "REDIRECTING"
	PaymentSucceeded                  PaymentState = "SUCCEEDED"
	PaymentAwaitingManualConfirmation PaymentState = "AWAITING_MANUAL_CONFIRMATION"
	PaymentFailed                     PaymentState = "FAILED"
	PaymentCancelled                  PaymentState = "CANCELLED"
)

// IsTerminal reports whether no further transition is possible
func (s PaymentState) IsTerminal() bool {
	return s == PaymentSucceeded || s == PaymentFailed || s == PaymentCancelled
}

// Navigator performs a full hand-off to an external page
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// PaymentOptions are set by the calling context
type PaymentOptions struct {
	AllowCash bool
	Currency  string
}

// ContactInfo is what the payer typed into the payment form
type ContactInfo struct {
	CustomerName string
	Email        string
	PhoneNumber  string
}

// PaymentCallbacks are invoked synchronously on the caller's goroutine
type PaymentCallbacks struct {
	OnSuccess func(PaymentOutcome)
	OnFailure func(PaymentOutcome)
	OnCancel  func()
}

// PaymentOutcome describes where the flow landed
type PaymentOutcome struct {
	State                PaymentState
	TransactionReference string
	RedirectURL          string
	Instructions         string
	Message              string
}

// PaymentOrchestrator creates payment flows for bookings
type PaymentOrchestrator struct {
	paymentRepo repository.PaymentRepository
	keeper      *RecoveryKeeper
	navigator   Navigator
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// NewPaymentOrchestrator creates a new payment orchestrator
func NewPaymentOrchestrator(
	paymentRepo repository.PaymentRepository,
	keeper *RecoveryKeeper,
	navigator Navigator,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *PaymentOrchestrator {
	return &PaymentOrchestrator{
		paymentRepo: paymentRepo,
		keeper:      keeper,
		navigator:   navigator,
		metrics:     metrics,
		logger:      logger,
	}
}

// NewFlow starts a flow for booking in SELECTING_METHOD
func (o *PaymentOrchestrator) NewFlow(booking *entity.Booking, opts PaymentOptions, callbacks PaymentCallbacks) *PaymentFlow {
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}
	var bookingID int64
	if booking != nil {
		bookingID = booking.ID
	}
	return &PaymentFlow{
		orchestrator: o,
		booking:      booking,
		opts:         opts,
		callbacks:    callbacks,
		state:        PaymentSelectingMethod,
		logger:       o.logger.With("bookingId", bookingID),
	}
}

// Initiate is a one-shot flow for callers that do not need Cancel or Resolve
func (o *PaymentOrchestrator) Initiate(ctx context.Context, booking *entity.Booking, method string, contact ContactInfo, opts PaymentOptions) (PaymentOutcome, error) {
	return o.NewFlow(booking, opts, PaymentCallbacks{}).Initiate(ctx, method, contact)
}

// PaymentFlow drives one booking's payment. Each transition replaces the
// whole state under the lock.
type PaymentFlow struct {
	orchestrator *PaymentOrchestrator
	booking      *entity.Booking
	opts         PaymentOptions
	callbacks    PaymentCallbacks
	logger       logger.Logger

	mu      sync.Mutex
	state   PaymentState
	outcome PaymentOutcome
}

// State returns the current state
func (f *PaymentFlow) State() PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Outcome returns the last outcome
func (f *PaymentFlow) Outcome() PaymentOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

func (f *PaymentFlow) transition(outcome PaymentOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = outcome.State
	f.outcome = outcome
}

// Initiate validates, submits the intent and branches on the gateway reply:
// ERROR, then redirect, then SUCCESS, otherwise manual confirmation.
func (f *PaymentFlow) Initiate(ctx context.Context, method string, contact ContactInfo) (PaymentOutcome, error) {
	o := f.orchestrator

	f.mu.Lock()
	if f.state != PaymentSelectingMethod {
		state := f.state
		f.mu.Unlock()
		return PaymentOutcome{State: state}, domain.ValidationError{Field: "state", Msg: fmt.Sprintf("payment is %s", strings.ToLower(string(state)))}
	}
	if err := f.validate(method, &contact); err != nil {
		f.mu.Unlock()
		o.metrics.PaymentOutcomes.WithLabelValues("invalid").Inc()
		return PaymentOutcome{State: PaymentSelectingMethod}, err
	}
	f.state = PaymentSubmitting
	f.outcome = PaymentOutcome{State: PaymentSubmitting}
	f.mu.Unlock()

	intent := f.buildIntent(method, contact)
	f.logger.Info("Initiating payment",
		"method", method,
		"amount", intent.Amount,
		"currency", intent.Currency)

	start := time.Now()
	resp, err := o.paymentRepo.Initiate(ctx, intent)
	o.metrics.RequestDuration.WithLabelValues("payment_initiate").Observe(time.Since(start).Seconds())

	if err != nil {
		f.transition(PaymentOutcome{State: PaymentSelectingMethod})
		o.metrics.PaymentOutcomes.WithLabelValues("error").Inc()
		o.metrics.ErrorsCount.WithLabelValues("payment_initiate").Inc()
		f.logger.Error("Payment initiation failed", "error", err)

		if remote, ok := domain.AsRemote(err); ok {
			return f.Outcome(), domain.PaymentError{
				Msg:        domain.UserMessage(err, PaymentFallbackMessage),
				StatusCode: remote.StatusCode,
				Err:        err,
			}
		}
		return f.Outcome(), domain.NetworkError{Op: "initiate payment", Msg: PaymentFallbackMessage, Err: err}
	}

	switch {
	case resp.Status == entity.TxError:
		msg := resp.Message
		if msg == "" {
			msg = PaymentFallbackMessage
		}
		f.transition(PaymentOutcome{State: PaymentSelectingMethod, Message: msg})
		o.metrics.PaymentOutcomes.WithLabelValues("error").Inc()
		f.logger.Warn("Payment rejected by gateway", "message", msg)
		return f.Outcome(), domain.PaymentError{Msg: msg}

	case resp.RequiresRedirect && resp.RedirectURL != "":
		outcome := PaymentOutcome{
			State:                PaymentRedirecting,
			TransactionReference: resp.TransactionReference,
			RedirectURL:          resp.RedirectURL,
			Message:              resp.Message,
		}
		f.transition(outcome)
		o.metrics.PaymentOutcomes.WithLabelValues("redirect").Inc()

		o.keeper.Remember(ctx, entity.RecoveryRecord{
			ID:                   f.booking.ID,
			BookingReference:     f.booking.BookingReference,
			PhoneNumber:          firstNonEmpty(f.booking.Customer.PhoneNumber, contact.PhoneNumber),
			Email:                firstNonEmpty(f.booking.Customer.Email, contact.Email),
			TransactionReference: resp.TransactionReference,
		})

		f.logger.Info("Redirecting to payment gateway", "transactionReference", resp.TransactionReference)
		if o.navigator == nil {
			f.logger.Warn("No navigator configured, redirect not opened", "url", resp.RedirectURL)
		} else if err := o.navigator.Navigate(ctx, resp.RedirectURL); err != nil {
			f.logger.Error("Failed to open payment page", "url", resp.RedirectURL, "error", err)
		}
		return outcome, nil

	case resp.Status == entity.TxSuccess:
		outcome := PaymentOutcome{
			State:                PaymentSucceeded,
			TransactionReference: resp.TransactionReference,
			Message:              resp.Message,
		}
		f.transition(outcome)
		o.metrics.PaymentOutcomes.WithLabelValues("success").Inc()
		f.logger.Info("Payment succeeded", "transactionReference", resp.TransactionReference)

		if f.callbacks.OnSuccess != nil {
			f.callbacks.OnSuccess(outcome)
		}
		return outcome, nil

	default:
		outcome := PaymentOutcome{
			State:                PaymentAwaitingManualConfirmation,
			TransactionReference: resp.TransactionReference,
			Instructions:         resp.Instructions,
			Message:              resp.Message,
		}
		f.transition(outcome)
		o.metrics.PaymentOutcomes.WithLabelValues("manual").Inc()
		f.logger.Info("Payment awaiting confirmation",
			"status", resp.Status,
			"transactionReference", resp.TransactionReference)
		return outcome, nil
	}
}

// Cancel abandons the flow without any network call
func (f *PaymentFlow) Cancel() error {
	f.mu.Lock()
	if f.state != PaymentSelectingMethod && f.state != PaymentAwaitingManualConfirmation {
		state := f.state
		f.mu.Unlock()
		return domain.ValidationError{Field: "state", Msg: fmt.Sprintf("cannot cancel a payment that is %s", strings.ToLower(string(state)))}
	}
	f.state = PaymentCancelled
	f.outcome = PaymentOutcome{State: PaymentCancelled, TransactionReference: f.outcome.TransactionReference}
	f.mu.Unlock()

	f.orchestrator.metrics.PaymentOutcomes.WithLabelValues("cancelled").Inc()
	f.logger.Info("Payment cancelled by user")
	if f.callbacks.OnCancel != nil {
		f.callbacks.OnCancel()
	}
	return nil
}

// Resolve applies a polled transaction to a flow waiting on confirmation or
// returning from a redirect. PENDING and unknown statuses leave it unchanged.
func (f *PaymentFlow) Resolve(tx *entity.PaymentTransaction) PaymentState {
	f.mu.Lock()
	if f.state != PaymentAwaitingManualConfirmation && f.state != PaymentRedirecting {
		state := f.state
		f.mu.Unlock()
		return state
	}

	outcome := PaymentOutcome{
		TransactionReference: tx.TransactionReference,
		Message:              tx.Message,
	}
	switch tx.Status {
	case entity.TxSuccess:
		outcome.State = PaymentSucceeded
	case entity.TxFailed:
		outcome.State = PaymentFailed
		if tx.FailureReason != "" {
			outcome.Message = tx.FailureReason
		}
	case entity.TxCancelled:
		outcome.State = PaymentCancelled
	default:
		state := f.state
		f.mu.Unlock()
		return state
	}
	f.state = outcome.State
	f.outcome = outcome
	f.mu.Unlock()

	f.orchestrator.metrics.PaymentOutcomes.WithLabelValues(strings.ToLower(string(outcome.State))).Inc()
	switch outcome.State {
	case PaymentSucceeded:
		if f.callbacks.OnSuccess != nil {
			f.callbacks.OnSuccess(outcome)
		}
	case PaymentFailed:
		if f.callbacks.OnFailure != nil {
			f.callbacks.OnFailure(outcome)
		}
	case PaymentCancelled:
		if f.callbacks.OnCancel != nil {
			f.callbacks.OnCancel()
		}
	}
	return outcome.State
}

func (f *PaymentFlow) validate(method string, contact *ContactInfo) error {
	contact.CustomerName = strings.TrimSpace(contact.CustomerName)
	contact.Email = strings.TrimSpace(contact.Email)
	contact.PhoneNumber = strings.TrimSpace(contact.PhoneNumber)

	if f.booking == nil || f.booking.ID <= 0 {
		return domain.ValidationError{Field: "bookingId", Msg: "no booking to pay for"}
	}
	if !entity.IsKnownMethod(method) {
		return domain.ValidationError{Field: "paymentMethod", Msg: "Please select a payment method"}
	}
	if method == entity.MethodCash && !f.opts.AllowCash {
		return domain.ValidationError{Field: "paymentMethod", Msg: "Cash payment is not available here"}
	}
	if !supportedCurrencies[f.opts.Currency] {
		return domain.ValidationError{Field: "currency", Msg: fmt.Sprintf("unsupported currency %s", f.opts.Currency)}
	}
	if contact.CustomerName == "" {
		return domain.ValidationError{Field: "customerName", Msg: "Customer name is required"}
	}
	if entity.IsCardMethod(method) {
		if contact.Email == "" {
			return domain.ValidationError{Field: "email", Msg: "Email is required for card payments"}
		}
		if _, err := mail.ParseAddress(contact.Email); err != nil {
			return domain.ValidationError{Field: "email", Msg: "Invalid email address", Err: err}
		}
	}
	if method == entity.MethodMobileMoney && !mobileMoneyPhone.MatchString(contact.PhoneNumber) {
		return domain.ValidationError{Field: "phoneNumber", Msg: "Phone number must be 10 digits starting with 07"}
	}
	if f.booking.TotalAmount <= 0 {
		return domain.ValidationError{Field: "amount", Msg: "booking has no amount to pay"}
	}
	return nil
}

func (f *PaymentFlow) buildIntent(method string, contact ContactInfo) entity.PaymentIntent {
	intent := entity.PaymentIntent{
		BookingID:     f.booking.ID,
		Amount:        f.booking.TotalAmount,
		PaymentMethod: method,
		Currency:      f.opts.Currency,
		Description:   ticketDescription(f.booking),
		CustomerName:  contact.CustomerName,
	}
	if entity.IsCardMethod(method) {
		intent.Email = contact.Email
	}
	if method == entity.MethodMobileMoney {
		intent.PhoneNumber = contact.PhoneNumber
	}
	return intent
}

func ticketDescription(b *entity.Booking) string {
	from, to := b.Schedule.Origin().Name, b.Schedule.Destination().Name
	if b.PickupPoint.District != nil && b.PickupPoint.District.Name != "" {
		from = b.PickupPoint.District.Name
	}
	if b.DropPoint.District != nil && b.DropPoint.District.Name != "" {
		to = b.DropPoint.District.Name
	}
	return fmt.Sprintf("Bus ticket from %s to %s", from, to)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
