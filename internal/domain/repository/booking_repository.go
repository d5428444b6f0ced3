package repository

import (
	"context"

	"inzira-booking-client/internal/domain/entity"
)

// BookingRepository defines the interface for reservation operations
type BookingRepository interface {
	CreateAuthenticated(ctx context.Context, req entity.BookingRequest) (*entity.Booking, error)
	CreateGuest(ctx context.Context, req entity.BookingRequest) (*entity.Booking, error)
	Get(ctx context.Context, id int64) (*entity.Booking, error)
	GetByReference(ctx context.Context, reference string) (*entity.Booking, error)
}
