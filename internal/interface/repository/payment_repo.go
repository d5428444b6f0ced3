package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
)

// HTTPPaymentRepository implements PaymentRepository over the payment gateway API.
// Payment replies are bare objects, not enveloped.
type HTTPPaymentRepository struct {
	client *APIClient
}

// NewHTTPPaymentRepository creates a new payment repository
func NewHTTPPaymentRepository(client *APIClient) repository.PaymentRepository {
	return &HTTPPaymentRepository{client: client}
}

// Initiate submits a payment intent. An ERROR reply is returned as a response.
func (r *HTTPPaymentRepository) Initiate(ctx context.Context, intent entity.PaymentIntent) (*entity.PaymentResponse, error) {
	resp, err := r.client.do(ctx, http.MethodPost, r.client.endpoints.PaymentInitiate, nil, intent)
	if err != nil {
		return nil, err
	}

	var payment entity.PaymentResponse
	decodeErr := json.Unmarshal(resp.Body, &payment)

	if !resp.ok() {
		if decodeErr == nil && payment.Status == entity.TxError {
			return &payment, nil
		}
		return nil, domain.RemoteError{StatusCode: resp.StatusCode, Message: remoteMessage(resp.Body)}
	}
	if decodeErr != nil {
		return nil, domain.NetworkError{Op: "initiate payment", Err: fmt.Errorf("failed to decode response: %w", decodeErr)}
	}
	return &payment, nil
}

// Status reads the current state of a transaction
func (r *HTTPPaymentRepository) Status(ctx context.Context, transactionReference string) (*entity.PaymentTransaction, error) {
	path := fmt.Sprintf(r.client.endpoints.PaymentStatus, url.PathEscape(transactionReference))
	resp, err := r.client.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, domain.RemoteError{StatusCode: resp.StatusCode, Message: remoteMessage(resp.Body)}
	}

	var tx entity.PaymentTransaction
	if err := json.Unmarshal(resp.Body, &tx); err != nil {
		return nil, domain.NetworkError{Op: "payment status", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if tx.TransactionReference == "" {
		tx.TransactionReference = transactionReference
	}
	return &tx, nil
}

// Cancel asks the gateway to cancel a pending transaction. A plain-text
// acknowledgement yields a transaction with only the reference and message set.
func (r *HTTPPaymentRepository) Cancel(ctx context.Context, transactionReference string) (*entity.PaymentTransaction, error) {
	path := fmt.Sprintf(r.client.endpoints.PaymentCancel, url.PathEscape(transactionReference))
	resp, err := r.client.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, domain.RemoteError{StatusCode: resp.StatusCode, Message: remoteMessage(resp.Body)}
	}

	var tx entity.PaymentTransaction
	if err := json.Unmarshal(resp.Body, &tx); err != nil {
		var text string
		if json.Unmarshal(resp.Body, &text) != nil {
			text = strings.TrimSpace(string(resp.Body))
		}
		tx = entity.PaymentTransaction{Message: text}
	}
	if tx.TransactionReference == "" {
		tx.TransactionReference = transactionReference
	}
	return &tx, nil
}
