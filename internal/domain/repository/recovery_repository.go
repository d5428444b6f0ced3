package repository

import (
	"context"

	"inzira-booking-client/internal/domain/entity"
)

// RecoveryRepository stores the single RecoveryRecord. Load returns nil, nil when nothing is stored.
type RecoveryRepository interface {
	Save(ctx context.Context, record *entity.RecoveryRecord) error
	Load(ctx context.Context) (*entity.RecoveryRecord, error)
	Clear(ctx context.Context) error
}
