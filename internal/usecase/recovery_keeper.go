package usecase

import (
	"context"
	"fmt"
	"time"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
	"inzira-booking-client/pkg/logger"
)

const recoveryWriteTimeout = 2 * time.Second

// RecoveryKeeper holds the record that survives a payment redirect
type RecoveryKeeper struct {
	recoveryRepo repository.RecoveryRepository
	logger       logger.Logger
}

// NewRecoveryKeeper creates a new recovery keeper
func NewRecoveryKeeper(recoveryRepo repository.RecoveryRepository, logger logger.Logger) *RecoveryKeeper {
	return &RecoveryKeeper{
		recoveryRepo: recoveryRepo,
		logger:       logger,
	}
}

// Remember stores the record, fire and forget. Failures are logged only.
func (k *RecoveryKeeper) Remember(ctx context.Context, record entity.RecoveryRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recoveryWriteTimeout)
	defer cancel()

	if err := k.recoveryRepo.Save(ctx, &record); err != nil {
		k.logger.Warn("Failed to save recovery record",
			"bookingId", record.ID,
			"transactionReference", record.TransactionReference,
			"error", err)
		return
	}
	k.logger.Debug("Recovery record saved", "bookingId", record.ID)
}

// Recall reads the record without clearing it. Returns nil, nil when there is none.
func (k *RecoveryKeeper) Recall(ctx context.Context) (*entity.RecoveryRecord, error) {
	record, err := k.recoveryRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recovery record: %w", err)
	}
	return record, nil
}

// Forget clears the record once it has been acted on. Failures are logged only.
func (k *RecoveryKeeper) Forget(ctx context.Context, record *entity.RecoveryRecord) {
	if err := k.recoveryRepo.Clear(ctx); err != nil {
		k.logger.Warn("Failed to clear recovery record", "bookingId", record.ID, "error", err)
		return
	}
	k.logger.Debug("Recovery record cleared", "bookingId", record.ID)
}
