package router

import (
	"fmt"
	"sync"

	"inzira-booking-client/internal/usecase"
	"inzira-booking-client/pkg/logger"
)

// FrameRouter routes push frames to handlers by frame type. The first
// registered handler that accepts a type wins.
type FrameRouter struct {
	mu       sync.RWMutex
	handlers []usecase.FrameHandler
	logger   logger.Logger
}

// NewFrameRouter creates a new frame router
func NewFrameRouter(logger logger.Logger) *FrameRouter {
	return &FrameRouter{
		handlers: make([]usecase.FrameHandler, 0),
		logger:   logger,
	}
}

// Register registers a handler
func (r *FrameRouter) Register(handler usecase.FrameHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered frame handler", "handler", fmt.Sprintf("%T", handler))
}

// GetHandler returns the appropriate handler for a given frame type
func (r *FrameRouter) GetHandler(frameType string) usecase.FrameHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, handler := range r.handlers {
		if handler.CanHandle(frameType) {
			return handler
		}
	}
	return nil
}
