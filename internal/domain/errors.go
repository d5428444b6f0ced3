package domain

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when an operation needs a signed-in session
var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError is a local, pre-network rejection. Nothing was sent.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// NetworkError means the request failed or timed out before a reply was read
type NetworkError struct {
	Op  string
	Msg string
	Err error
}

func (e NetworkError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "network error"
	}
}

func (e NetworkError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx reply from the API
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, e.Message)
}

// BookingError is a server rejection of a structurally valid booking
type BookingError struct {
	Msg        string
	StatusCode int
	Err        error
}

func (e BookingError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "booking rejected"
}

func (e BookingError) Unwrap() error { return e.Err }

// PaymentError is a gateway rejection of a payment intent
type PaymentError struct {
	Msg        string
	StatusCode int
	Err        error
}

func (e PaymentError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "payment rejected"
}

func (e PaymentError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target NetworkError
	return errors.As(err, &target)
}

func IsBooking(err error) bool {
	var target BookingError
	return errors.As(err, &target)
}

func IsPayment(err error) bool {
	var target PaymentError
	return errors.As(err, &target)
}

// AsRemote extracts a RemoteError from the chain
func AsRemote(err error) (RemoteError, bool) {
	var target RemoteError
	if errors.As(err, &target) {
		return target, true
	}
	return RemoteError{}, false
}

// UserMessage picks the text to show for err: the server's message when the
// API sent one, the validation text for local errors, otherwise fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if remote, ok := AsRemote(err); ok && remote.Message != "" {
		return remote.Message
	}
	var v ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	var b BookingError
	if errors.As(err, &b) && b.Msg != "" {
		return b.Msg
	}
	var p PaymentError
	if errors.As(err, &p) && p.Msg != "" {
		return p.Msg
	}
	return fallback
}
