package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
)

// recoveryRow is the SQL row holding the recovery record
type recoveryRow struct {
	RecordKey string                `gorm:"column:record_key;primaryKey"`
	Record    entity.RecoveryRecord `gorm:"embedded"`
	UpdatedAt time.Time             `gorm:"column:updated_at"`
}

func (recoveryRow) TableName() string {
	return "recovery_records"
}

// GormRecoveryRepository keeps the recovery record in a SQL table
type GormRecoveryRepository struct {
	db *gorm.DB
}

// NewGormRecoveryRepository creates a new SQL-backed recovery repository and
// migrates its table
func NewGormRecoveryRepository(db *gorm.DB) (repository.RecoveryRepository, error) {
	if err := db.AutoMigrate(&recoveryRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate recovery table: %w", err)
	}
	return &GormRecoveryRepository{db: db}, nil
}

// Save upserts the single row
func (r *GormRecoveryRepository) Save(ctx context.Context, record *entity.RecoveryRecord) error {
	row := recoveryRow{
		RecordKey: entity.RecoveryKey,
		Record:    *record,
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_key"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save recovery record: %w", err)
	}
	return nil
}

func (r *GormRecoveryRepository) Load(ctx context.Context) (*entity.RecoveryRecord, error) {
	var row recoveryRow
	err := r.db.WithContext(ctx).Where("record_key = ?", entity.RecoveryKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recovery record: %w", err)
	}
	record := row.Record
	return &record, nil
}

func (r *GormRecoveryRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("record_key = ?", entity.RecoveryKey).Delete(&recoveryRow{}).Error
}
