package repository

import (
	"context"

	"inzira-booking-client/internal/domain/entity"
)

// PaymentRepository defines the interface for gateway operations.
// Initiate returns a response, not an error, when the gateway answers with status ERROR.
type PaymentRepository interface {
	Initiate(ctx context.Context, intent entity.PaymentIntent) (*entity.PaymentResponse, error)
	Status(ctx context.Context, transactionReference string) (*entity.PaymentTransaction, error)
	Cancel(ctx context.Context, transactionReference string) (*entity.PaymentTransaction, error)
}
