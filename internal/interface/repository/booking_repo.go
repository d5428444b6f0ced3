package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
)

type idRef struct {
	ID int64 `json:"id"`
}

// authenticatedBookingBody is the bookings request shape
type authenticatedBookingBody struct {
	Customer      idRef `json:"customer"`
	Schedule      idRef `json:"schedule"`
	PickupPoint   idRef `json:"pickupPoint"`
	DropPoint     idRef `json:"dropPoint"`
	NumberOfSeats int   `json:"numberOfSeats"`
}

// guestBookingBody is the guest-bookings request shape
type guestBookingBody struct {
	ScheduleID          int64  `json:"scheduleId"`
	PickupPointID       int64  `json:"pickupPointId"`
	DropPointID         int64  `json:"dropPointId"`
	NumberOfSeats       int    `json:"numberOfSeats"`
	CustomerFirstName   string `json:"customerFirstName"`
	CustomerLastName    string `json:"customerLastName"`
	CustomerEmail       string `json:"customerEmail,omitempty"`
	CustomerPhoneNumber string `json:"customerPhoneNumber"`
	IsGuestBooking      bool   `json:"isGuestBooking"`
}

// HTTPBookingRepository implements BookingRepository over the booking API
type HTTPBookingRepository struct {
	client *APIClient
}

// NewHTTPBookingRepository creates a new booking repository
func NewHTTPBookingRepository(client *APIClient) repository.BookingRepository {
	return &HTTPBookingRepository{client: client}
}

// CreateAuthenticated books on behalf of the signed-in customer
func (r *HTTPBookingRepository) CreateAuthenticated(ctx context.Context, req entity.BookingRequest) (*entity.Booking, error) {
	body := authenticatedBookingBody{
		Customer:      idRef{ID: req.CustomerID},
		Schedule:      idRef{ID: req.ScheduleID},
		PickupPoint:   idRef{ID: req.PickupPointID},
		DropPoint:     idRef{ID: req.DropPointID},
		NumberOfSeats: req.NumberOfSeats,
	}
	return r.create(ctx, r.client.endpoints.Bookings, body)
}

// CreateGuest books for a traveler without an account
func (r *HTTPBookingRepository) CreateGuest(ctx context.Context, req entity.BookingRequest) (*entity.Booking, error) {
	if req.Guest == nil {
		return nil, fmt.Errorf("guest booking without guest details")
	}
	body := guestBookingBody{
		ScheduleID:          req.ScheduleID,
		PickupPointID:       req.PickupPointID,
		DropPointID:         req.DropPointID,
		NumberOfSeats:       req.NumberOfSeats,
		CustomerFirstName:   req.Guest.FirstName,
		CustomerLastName:    req.Guest.LastName,
		CustomerEmail:       req.Guest.Email,
		CustomerPhoneNumber: req.Guest.PhoneNumber,
		IsGuestBooking:      true,
	}
	return r.create(ctx, r.client.endpoints.GuestBookings, body)
}

// Get loads a booking by id
func (r *HTTPBookingRepository) Get(ctx context.Context, id int64) (*entity.Booking, error) {
	var booking entity.Booking
	path := fmt.Sprintf(r.client.endpoints.BookingByID, id)
	if err := r.client.doEnveloped(ctx, http.MethodGet, path, nil, nil, &booking); err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return &booking, nil
}

// GetByReference loads a booking by its public reference
func (r *HTTPBookingRepository) GetByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	var booking entity.Booking
	path := fmt.Sprintf(r.client.endpoints.BookingByReference, url.PathEscape(reference))
	if err := r.client.doEnveloped(ctx, http.MethodGet, path, nil, nil, &booking); err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return &booking, nil
}

func (r *HTTPBookingRepository) create(ctx context.Context, path string, body interface{}) (*entity.Booking, error) {
	var booking entity.Booking
	if err := r.client.doEnveloped(ctx, http.MethodPost, path, nil, body, &booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return &booking, nil
}
