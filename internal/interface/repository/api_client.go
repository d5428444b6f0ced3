package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/pkg/logger"
)

const maxResponseBytes = 4 << 20

// Endpoints are paths relative to the API base URL
type Endpoints struct {
	ScheduleSearch     string
	Bookings           string
	GuestBookings      string
	BookingByID        string // formatted with the booking id
	BookingByReference string // formatted with the booking reference
	RoutePoints        string // formatted with the district id
	PaymentInitiate    string
	PaymentStatus      string // formatted with the transaction reference
	PaymentCancel      string // formatted with the transaction reference
}

// DefaultEndpoints returns the booking API paths
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ScheduleSearch:     "schedules/search",
		Bookings:           "bookings",
		GuestBookings:      "guest-bookings",
		BookingByID:        "bookings/%d",
		BookingByReference: "bookings/reference/%s",
		RoutePoints:        "districts/%d/points",
		PaymentInitiate:    "payments/initiate",
		PaymentStatus:      "payments/status/%s",
		PaymentCancel:      "payments/cancel/%s",
	}
}

// APIClient performs rate-limited JSON requests against the booking API
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	endpoints  Endpoints
	logger     logger.Logger
}

// NewAPIClient creates a new API client. transport carries authentication;
// limiter may be nil.
func NewAPIClient(baseURL string, timeout time.Duration, transport http.RoundTripper, limiter *rate.Limiter, logger logger.Logger) *APIClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    limiter,
		endpoints:  DefaultEndpoints(),
		logger:     logger,
	}
}

// WithEndpoints overrides the endpoint paths
func (c *APIClient) WithEndpoints(endpoints Endpoints) *APIClient {
	c.endpoints = endpoints
	return c
}

// apiEnvelope wraps schedule and booking replies
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiResponse struct {
	StatusCode int
	Body       []byte
}

func (r apiResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// do sends one request. Only transport failures are returned as errors.
func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (apiResponse, error) {
	op := method + " " + path

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apiResponse{}, domain.NetworkError{Op: op, Err: err}
		}
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return apiResponse{}, fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apiResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("API request failed", "op", op, "requestId", requestID, "error", err)
		return apiResponse{}, domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apiResponse{}, domain.NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("API request",
		"op", op,
		"status", resp.StatusCode,
		"requestId", requestID,
		"duration", time.Since(start))

	return apiResponse{StatusCode: resp.StatusCode, Body: raw}, nil
}

// doEnveloped sends a request and decodes the data field of a
// {success, message, data} reply into out
func (c *APIClient) doEnveloped(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	resp, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return domain.RemoteError{StatusCode: resp.StatusCode, Message: remoteMessage(resp.Body)}
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return domain.NetworkError{Op: method + " " + path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if !envelope.Success {
		return domain.RemoteError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return domain.NetworkError{Op: method + " " + path, Err: fmt.Errorf("failed to decode response data: %w", err)}
	}
	return nil
}

// remoteMessage pulls a human message out of an error body
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
