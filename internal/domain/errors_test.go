package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("search: %w", ValidationError{Field: "originId", Msg: "is required"})
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsNetwork(wrapped))
	assert.Equal(t, "search: originId: is required", wrapped.Error())

	netErr := NetworkError{Op: "GET schedules/search", Err: errors.New("connection refused")}
	assert.True(t, IsNetwork(netErr))
	assert.Equal(t, "GET schedules/search: connection refused", netErr.Error())

	assert.True(t, IsBooking(BookingError{Msg: "Not enough seats"}))
	assert.True(t, IsPayment(fmt.Errorf("x: %w", PaymentError{})))
}

func TestAsRemote(t *testing.T) {
	err := fmt.Errorf("create booking: %w", RemoteError{StatusCode: 409, Message: "Seats no longer available"})
	remote, ok := AsRemote(err)
	assert.True(t, ok)
	assert.Equal(t, 409, remote.StatusCode)

	_, ok = AsRemote(errors.New("plain"))
	assert.False(t, ok)
}

func TestUserMessage(t *testing.T) {
	fallback := "Failed to create booking"

	assert.Equal(t, "Seats no longer available",
		UserMessage(BookingError{Err: RemoteError{StatusCode: 409, Message: "Seats no longer available"}}, fallback))
	assert.Equal(t, fallback, UserMessage(NetworkError{Err: errors.New("timeout")}, fallback))
	assert.Equal(t, fallback, UserMessage(RemoteError{StatusCode: 500}, fallback))
	assert.Equal(t, "numberOfSeats: must be at least 1",
		UserMessage(ValidationError{Field: "numberOfSeats", Msg: "must be at least 1"}, fallback))
	assert.Empty(t, UserMessage(nil, fallback))
}
