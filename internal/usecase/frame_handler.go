package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
)

// PushFrame is one message read from a seat transport. Event is the SSE
// event name and is empty on transports without named events.
type PushFrame struct {
	Event string
	Data  []byte
}

// FrameHandler defines the interface for push frame handlers
type FrameHandler interface {
	// CanHandle determines if this handler can process the given frame type
	CanHandle(frameType string) bool

	// Handle processes the frame payload. An error marks the frame malformed.
	Handle(ctx context.Context, data []byte) error
}

// FrameRouter routes push frames to the appropriate handler based on type
type FrameRouter interface {
	// Register registers a handler
	Register(handler FrameHandler)

	// GetHandler returns the appropriate handler for a given frame type
	GetHandler(frameType string) FrameHandler
}

// SeatUpdateHandler merges SEAT_UPDATE payloads into the seat register
type SeatUpdateHandler struct {
	register *SeatRegister
	notify   func(entity.SeatUpdateEvent)
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewSeatUpdateHandler creates a new seat update handler. notify may be nil
// and is called only for applied updates.
func NewSeatUpdateHandler(
	register *SeatRegister,
	notify func(entity.SeatUpdateEvent),
	metrics *metrics.Metrics,
	logger logger.Logger,
) *SeatUpdateHandler {
	return &SeatUpdateHandler{
		register: register,
		notify:   notify,
		metrics:  metrics,
		logger:   logger,
	}
}

// CanHandle checks if this handler can process the frame type
func (h *SeatUpdateHandler) CanHandle(frameType string) bool {
	return frameType == entity.EventSeatUpdate
}

// Handle decodes and applies one seat update
func (h *SeatUpdateHandler) Handle(ctx context.Context, data []byte) error {
	var event entity.SeatUpdateEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode seat update: %w", err)
	}
	if event.ScheduleID <= 0 {
		return fmt.Errorf("seat update without scheduleId")
	}

	result := h.register.Apply(event)
	h.metrics.SeatUpdates.WithLabelValues(result).Inc()

	switch result {
	case SeatApplied:
		h.logger.Debug("Seat update applied",
			"scheduleId", event.ScheduleID,
			"availableSeats", event.AvailableSeats,
			"sequence", event.Sequence)
		if h.notify != nil {
			h.notify(event)
		}
	case SeatStale:
		h.logger.Debug("Stale seat update discarded",
			"scheduleId", event.ScheduleID,
			"sequence", event.Sequence)
	}
	return nil
}

// ControlFrameHandler accepts connection bookkeeping frames and does nothing with them
type ControlFrameHandler struct {
	types  []string
	logger logger.Logger
}

// NewControlFrameHandler creates a handler for the given frame types
func NewControlFrameHandler(logger logger.Logger, types ...string) *ControlFrameHandler {
	if len(types) == 0 {
		types = []string{entity.EventConnected, entity.EventHeartbeat}
	}
	return &ControlFrameHandler{types: types, logger: logger}
}

// CanHandle checks if this handler can process the frame type
func (h *ControlFrameHandler) CanHandle(frameType string) bool {
	for _, t := range h.types {
		if strings.EqualFold(t, frameType) {
			return true
		}
	}
	return false
}

// Handle logs the frame
func (h *ControlFrameHandler) Handle(ctx context.Context, data []byte) error {
	h.logger.Debug("Control frame received", "data", string(data))
	return nil
}

// frameType picks the JSON "type" field, falling back to the event name
func frameType(frame PushFrame) (string, error) {
	data := strings.TrimSpace(string(frame.Data))
	if data == "" {
		if frame.Event == "" {
			return "", fmt.Errorf("empty frame")
		}
		return frame.Event, nil
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		return "", fmt.Errorf("failed to decode frame: %w", err)
	}
	if envelope.Type != "" {
		return envelope.Type, nil
	}
	if frame.Event == "" {
		return "", fmt.Errorf("frame without type")
	}
	return frame.Event, nil
}
