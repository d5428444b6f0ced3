package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
)

func newPoller(repo *fakePaymentRepo) *PaymentStatusPoller {
	return NewPaymentStatusPoller(repo, metrics.NewNopMetrics(), logger.NewNopLogger())
}

func TestDescribeStatus(t *testing.T) {
	assert.Equal(t, "Payment completed successfully", DescribeStatus("SUCCESS").Message)
	assert.Equal(t, "Payment is being processed", DescribeStatus("PENDING").Message)
	assert.Equal(t, "Payment failed", DescribeStatus("FAILED").Message)
	assert.Equal(t, "Payment has been refunded", DescribeStatus("REFUNDED").Message)
	assert.Equal(t, "Payment was cancelled", DescribeStatus("CANCELLED").Message)

	for _, s := range []string{"", "ERROR", "PROCESSING", "succeeded", "success", "Pending", " SUCCESS"} {
		d := DescribeStatus(s)
		assert.False(t, d.Known, s)
		assert.Equal(t, "Unknown payment status", d.Message)
	}
}

func TestCheck_NoReference(t *testing.T) {
	repo := &fakePaymentRepo{}
	view, err := newPoller(repo).Check(context.Background(), "  ")
	require.NoError(t, err)
	assert.True(t, view.NoReference)
	assert.Zero(t, repo.statusCalls)
}

func TestCheck_PendingCanCancel(t *testing.T) {
	repo := &fakePaymentRepo{
		tx:       &entity.PaymentTransaction{TransactionReference: "TXN-1", Status: "PENDING", Amount: 7000, Currency: "RWF"},
		cancelTx: &entity.PaymentTransaction{TransactionReference: "TXN-1", Status: "CANCELLED"},
	}
	poller := newPoller(repo)

	view, err := poller.Check(context.Background(), "TXN-1")
	require.NoError(t, err)
	assert.True(t, view.CanCancel)
	assert.Equal(t, entity.TxPending, view.Display.Status)

	view, err = poller.CancelPayment(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN-1"}, repo.cancelled)
	assert.Equal(t, entity.TxCancelled, view.Display.Status)
	assert.False(t, view.CanCancel)
}

func TestCheck_OnlyPendingCancels(t *testing.T) {
	for _, status := range []string{"SUCCESS", "FAILED", "REFUNDED", "CANCELLED", "WEIRD"} {
		repo := &fakePaymentRepo{tx: &entity.PaymentTransaction{Status: status}}
		poller := newPoller(repo)

		view, err := poller.Check(context.Background(), "TXN-1")
		require.NoError(t, err)
		assert.False(t, view.CanCancel, status)

		_, err = poller.CancelPayment(context.Background(), view)
		assert.True(t, domain.IsValidation(err))
		assert.Empty(t, repo.cancelled)
	}
}

func TestCheck_FailureOffersRetry(t *testing.T) {
	repo := &fakePaymentRepo{statusErr: errBoom}
	poller := newPoller(repo)

	view, err := poller.Check(context.Background(), "TXN-9")
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, StatusFallbackMessage, view.ErrorMessage)
	assert.True(t, view.CanRetry)
	assert.Equal(t, 1, repo.statusCalls, "no automatic retry")

	repo.statusErr = nil
	repo.tx = &entity.PaymentTransaction{Status: "SUCCESS"}
	view, err = poller.Retry(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, "TXN-9", view.Transaction.TransactionReference)
	assert.Equal(t, 2, repo.statusCalls)
}

func TestCheck_ServerMessageSurfaces(t *testing.T) {
	repo := &fakePaymentRepo{statusErr: domain.RemoteError{StatusCode: 404, Message: "Payment not found"}}
	view, _ := newPoller(repo).Check(context.Background(), "TXN-0")
	assert.Equal(t, "Payment not found", view.ErrorMessage)
}

func TestRecoveryKeeper_RecallThenForget(t *testing.T) {
	repo := &fakeRecoveryRepo{}
	keeper := NewRecoveryKeeper(repo, logger.NewNopLogger())

	keeper.Remember(context.Background(), entity.RecoveryRecord{ID: 1, TransactionReference: "TXN-1"})

	record, err := keeper.Recall(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "TXN-1", record.TransactionReference)
	assert.Zero(t, repo.clears)

	keeper.Forget(context.Background(), record)
	record, err = keeper.Recall(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRecoveryKeeper_RememberSurvivesCancelledContext(t *testing.T) {
	repo := &fakeRecoveryRepo{}
	keeper := NewRecoveryKeeper(repo, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	keeper.Remember(ctx, entity.RecoveryRecord{ID: 2})
	assert.Equal(t, 1, repo.saves)
}

func TestResume(t *testing.T) {
	recovery := &fakeRecoveryRepo{record: &entity.RecoveryRecord{ID: 55, BookingReference: "BK-55", TransactionReference: "TXN-7"}}
	payments := &fakePaymentRepo{tx: &entity.PaymentTransaction{Status: "SUCCESS"}}
	log := logger.NewNopLogger()
	resumer := NewPaymentResumer(NewRecoveryKeeper(recovery, log), newPoller(payments), nil, log)

	resumed, err := resumer.Resume(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, resumed.Record)
	assert.Equal(t, "BK-55", resumed.Record.BookingReference)
	assert.Equal(t, "TXN-7", resumed.View.Reference)
	assert.Equal(t, entity.TxSuccess, resumed.View.Display.Status)
	assert.Equal(t, 1, recovery.clears)

	// second load finds nothing
	resumed, err = resumer.Resume(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, resumed.Record)
	assert.True(t, resumed.View.NoReference)
}

func TestResume_FailedCheckKeepsRecordForRetry(t *testing.T) {
	recovery := &fakeRecoveryRepo{record: &entity.RecoveryRecord{ID: 55, BookingReference: "BK-55", TransactionReference: "TXN-7"}}
	payments := &fakePaymentRepo{statusErr: errBoom}
	log := logger.NewNopLogger()
	resumer := NewPaymentResumer(NewRecoveryKeeper(recovery, log), newPoller(payments), nil, log)

	resumed, err := resumer.Resume(context.Background(), "")
	assert.True(t, domain.IsNetwork(err))
	assert.True(t, resumed.View.CanRetry)
	assert.Equal(t, "TXN-7", resumed.View.Reference)
	assert.Zero(t, recovery.clears)

	payments.statusErr = nil
	payments.tx = &entity.PaymentTransaction{Status: "PENDING"}
	resumed, err = resumer.Resume(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, resumed.Record)
	assert.Equal(t, "TXN-7", resumed.View.Reference)
	assert.Equal(t, entity.TxPending, resumed.View.Display.Status)
	assert.Equal(t, 1, recovery.clears)
}

func TestResume_ReidentifiesBookingFromRecord(t *testing.T) {
	recovery := &fakeRecoveryRepo{record: &entity.RecoveryRecord{
		ID:                   55,
		BookingReference:     "BK-55",
		PhoneNumber:          "0788123456",
		TransactionReference: "TXN-7",
	}}
	payments := &fakePaymentRepo{tx: &entity.PaymentTransaction{Status: "SUCCESS"}}
	bookings := &fakeBookingRepo{found: testBooking()}
	log := logger.NewNopLogger()
	finder := newBookingOrchestrator(bookings, nil, nil)
	resumer := NewPaymentResumer(NewRecoveryKeeper(recovery, log), newPoller(payments), finder, log)

	resumed, err := resumer.Resume(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, resumed.Booking)
	assert.Equal(t, int64(55), resumed.Booking.ID)
	assert.Equal(t, []string{"ref:BK-55"}, bookings.lookups)

	// a record whose contact no longer matches still resumes the payment
	recovery.record = &entity.RecoveryRecord{ID: 55, BookingReference: "BK-55", PhoneNumber: "0700000000", TransactionReference: "TXN-7"}
	resumed, err = resumer.Resume(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, resumed.Booking)
	assert.Equal(t, entity.TxSuccess, resumed.View.Display.Status)
}
