package usecase

import (
	"context"
	"strings"
	"time"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
)

// StatusFallbackMessage is shown when the server gave no usable message
const StatusFallbackMessage = "Failed to check payment status"

// StatusDisplay is how a transaction status is presented
type StatusDisplay struct {
	Status  string
	Icon    string
	Message string
	Known   bool
}

var statusDisplays = map[string]StatusDisplay{
	entity.TxSuccess:   {Status: entity.TxSuccess, Icon: "✅", Message: "Payment completed successfully", Known: true},
	entity.TxPending:   {Status: entity.TxPending, Icon: "⏳", Message: "Payment is being processed", Known: true},
	entity.TxFailed:    {Status: entity.TxFailed, Icon: "❌", Message: "Payment failed", Known: true},
	entity.TxRefunded:  {Status: entity.TxRefunded, Icon: "↩️", Message: "Payment has been refunded", Known: true},
	entity.TxCancelled: {Status: entity.TxCancelled, Icon: "🚫", Message: "Payment was cancelled", Known: true},
}

// DescribeStatus maps any status string onto the display taxonomy. Matching
// is exact; anything else, including other casings, is the unknown entry.
func DescribeStatus(status string) StatusDisplay {
	if d, ok := statusDisplays[status]; ok {
		return d
	}
	return StatusDisplay{Status: status, Icon: "❓", Message: "Unknown payment status"}
}

// StatusView is everything a status screen needs
type StatusView struct {
	Reference    string
	NoReference  bool
	Transaction  *entity.PaymentTransaction
	Display      StatusDisplay
	ErrorMessage string
	CanRetry     bool
	CanCancel    bool
}

// PaymentStatusPoller resolves payments by transaction reference. It never
// retries on its own.
type PaymentStatusPoller struct {
	paymentRepo repository.PaymentRepository
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// NewPaymentStatusPoller creates a new status poller
func NewPaymentStatusPoller(paymentRepo repository.PaymentRepository, metrics *metrics.Metrics, logger logger.Logger) *PaymentStatusPoller {
	return &PaymentStatusPoller{
		paymentRepo: paymentRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// Check fetches the transaction. An empty reference yields a NoReference
// view and no error.
func (p *PaymentStatusPoller) Check(ctx context.Context, reference string) (StatusView, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return StatusView{NoReference: true}, nil
	}

	start := time.Now()
	tx, err := p.paymentRepo.Status(ctx, reference)
	p.metrics.RequestDuration.WithLabelValues("payment_status").Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.ErrorsCount.WithLabelValues("payment_status").Inc()
		p.logger.Error("Failed to check payment status", "transactionReference", reference, "error", err)

		view := StatusView{
			Reference:    reference,
			ErrorMessage: domain.UserMessage(err, StatusFallbackMessage),
			CanRetry:     true,
		}
		return view, domain.NetworkError{Op: "check payment status", Msg: view.ErrorMessage, Err: err}
	}

	return viewOf(reference, tx), nil
}

// Retry repeats the check for the view's reference
func (p *PaymentStatusPoller) Retry(ctx context.Context, view StatusView) (StatusView, error) {
	return p.Check(ctx, view.Reference)
}

// CancelPayment cancels a PENDING transaction and returns the refreshed view
func (p *PaymentStatusPoller) CancelPayment(ctx context.Context, view StatusView) (StatusView, error) {
	if !view.CanCancel {
		return view, domain.ValidationError{Field: "status", Msg: "only pending payments can be cancelled"}
	}

	tx, err := p.paymentRepo.Cancel(ctx, view.Reference)
	if err != nil {
		p.metrics.ErrorsCount.WithLabelValues("payment_cancel").Inc()
		p.logger.Error("Failed to cancel payment", "transactionReference", view.Reference, "error", err)

		view.ErrorMessage = domain.UserMessage(err, "Failed to cancel payment")
		view.CanRetry = true
		return view, domain.NetworkError{Op: "cancel payment", Msg: view.ErrorMessage, Err: err}
	}

	p.logger.Info("Payment cancelled", "transactionReference", view.Reference)
	if tx == nil || tx.Status == "" {
		return p.Check(ctx, view.Reference)
	}
	return viewOf(view.Reference, tx), nil
}

func viewOf(reference string, tx *entity.PaymentTransaction) StatusView {
	if tx == nil {
		tx = &entity.PaymentTransaction{}
	}
	if tx.TransactionReference == "" {
		tx.TransactionReference = reference
	}
	display := DescribeStatus(tx.Status)
	return StatusView{
		Reference:   reference,
		Transaction: tx,
		Display:     display,
		CanRetry:    true,
		CanCancel:   display.Known && display.Status == entity.TxPending,
	}
}
