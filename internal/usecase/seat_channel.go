package usecase

import (
	"context"
	"sync"
	"time"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
)

// ChannelState is the seat channel connection state
type ChannelState string

const (
	ChannelDisconnected ChannelState = "DISCONNECTED"
	ChannelConnecting   ChannelState = "CONNECTING"
	ChannelConnected    ChannelState = "CONNECTED"
	ChannelError        ChannelState = "ERROR"
)

var channelStateGauge = map[ChannelState]float64{
	ChannelDisconnected: 0,
	ChannelConnecting:   1,
	ChannelConnected:    2,
	ChannelError:        3,
}

const subscribeTimeout = 5 * time.Second

// SeatStream is an open push connection
type SeatStream interface {
	// Next blocks until a frame arrives, the stream fails or ctx is done
	Next(ctx context.Context) (PushFrame, error)

	// Subscribe and Unsubscribe are advisory on transports that cannot filter
	Subscribe(ctx context.Context, scheduleID int64) error
	Unsubscribe(ctx context.Context, scheduleID int64) error

	Close() error
}

// SeatTransport opens seat streams authenticated with a bearer token
type SeatTransport interface {
	Open(ctx context.Context, token string) (SeatStream, error)
}

// Authenticator reports the current session
type Authenticator interface {
	IsAuthenticated() bool
	Token() string
}

// SeatChannel keeps one push connection per authenticated session and
// merges what it receives into a SeatRegister.
type SeatChannel struct {
	transport SeatTransport
	auth      Authenticator
	register  *SeatRegister
	router    FrameRouter
	metrics   *metrics.Metrics
	logger    logger.Logger

	mu      sync.Mutex
	state   ChannelState
	gen     uint64
	stream  SeatStream
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	listenersMu sync.RWMutex
	listeners   []func(entity.SeatUpdateEvent)
}

// NewSeatChannel creates a disconnected seat channel
func NewSeatChannel(
	transport SeatTransport,
	auth Authenticator,
	register *SeatRegister,
	router FrameRouter,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *SeatChannel {
	c := &SeatChannel{
		transport: transport,
		auth:      auth,
		register:  register,
		router:    router,
		metrics:   metrics,
		logger:    logger,
		state:     ChannelDisconnected,
	}
	c.metrics.ChannelState.Set(channelStateGauge[ChannelDisconnected])
	return c
}

// State returns the current connection state
func (c *SeatChannel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error that last dropped the connection
func (c *SeatChannel) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *SeatChannel) setStateLocked(state ChannelState) {
	if c.state == state {
		return
	}
	c.logger.Debug("Seat channel state", "from", c.state, "to", state)
	c.state = state
	c.metrics.ChannelState.Set(channelStateGauge[state])
}

// Connect opens the push connection. It is a no-op while connecting or
// connected and fails with ErrNotAuthenticated without a session.
func (c *SeatChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == ChannelConnecting || c.state == ChannelConnected {
		c.mu.Unlock()
		return nil
	}
	if c.auth == nil || !c.auth.IsAuthenticated() {
		c.mu.Unlock()
		return domain.ErrNotAuthenticated
	}

	c.gen++
	gen := c.gen
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.setStateLocked(ChannelConnecting)
	token := c.auth.Token()
	c.mu.Unlock()

	// the caller's ctx bounds the open only; the stream lives until Disconnect
	stop := context.AfterFunc(ctx, cancel)
	stream, err := c.transport.Open(runCtx, token)
	stop()

	c.mu.Lock()
	if c.gen != gen {
		// disconnected while opening
		c.mu.Unlock()
		if stream != nil {
			stream.Close()
		}
		return nil
	}
	if err == nil && runCtx.Err() != nil {
		stream.Close()
		err = runCtx.Err()
	}
	if err != nil {
		c.lastErr = err
		c.setStateLocked(ChannelError)
		c.setStateLocked(ChannelDisconnected)
		c.cancel = nil
		c.mu.Unlock()
		cancel()

		c.metrics.ErrorsCount.WithLabelValues("seat_channel").Inc()
		c.logger.Error("Failed to open seat channel", "error", err)
		return domain.NetworkError{Op: "open seat channel", Err: err}
	}

	done := make(chan struct{})
	c.stream = stream
	c.done = done
	c.setStateLocked(ChannelConnected)
	ids := c.register.Subscribed()
	c.mu.Unlock()

	c.logger.Info("Seat channel connected", "subscriptions", len(ids))
	for _, id := range ids {
		c.sendSubscription(runCtx, stream, id, true)
	}

	go c.readLoop(runCtx, gen, stream, done)
	return nil
}

// Disconnect releases the transport and waits for the reader to exit.
// It is idempotent. Do not call it from an update listener.
func (c *SeatChannel) Disconnect() {
	c.mu.Lock()
	if c.state == ChannelDisconnected && c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.gen++
	cancel, stream, done := c.cancel, c.stream, c.done
	c.cancel, c.stream, c.done = nil, nil, nil
	c.setStateLocked(ChannelDisconnected)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stream != nil {
		if err := stream.Close(); err != nil {
			c.logger.Debug("Seat stream close error", "error", err)
		}
	}
	if done != nil {
		<-done
	}
	c.logger.Info("Seat channel disconnected")
}

// OnAuthChanged connects on sign-in and disconnects on sign-out
func (c *SeatChannel) OnAuthChanged(ctx context.Context) error {
	if c.auth == nil || !c.auth.IsAuthenticated() {
		c.Disconnect()
		return nil
	}
	return c.Connect(ctx)
}

// Close tears the channel down and forgets pushed values
func (c *SeatChannel) Close() {
	c.Disconnect()
	c.register.Reset()
}

// Subscribe declares interest in a schedule
func (c *SeatChannel) Subscribe(ctx context.Context, scheduleID int64) {
	if !c.register.Subscribe(scheduleID) {
		return
	}
	if stream := c.currentStream(); stream != nil {
		c.sendSubscription(ctx, stream, scheduleID, true)
	}
}

// Unsubscribe drops interest in a schedule
func (c *SeatChannel) Unsubscribe(ctx context.Context, scheduleID int64) {
	if !c.register.Unsubscribe(scheduleID) {
		return
	}
	if stream := c.currentStream(); stream != nil {
		c.sendSubscription(ctx, stream, scheduleID, false)
	}
}

// Track makes the subscription set match the displayed schedules
func (c *SeatChannel) Track(ctx context.Context, schedules []entity.Schedule) {
	wanted := make(map[int64]struct{}, len(schedules))
	for _, s := range schedules {
		wanted[s.ID] = struct{}{}
	}
	for _, id := range c.register.Subscribed() {
		if _, ok := wanted[id]; !ok {
			c.Unsubscribe(ctx, id)
		}
	}
	for id := range wanted {
		c.Subscribe(ctx, id)
	}
}

// EffectiveAvailableSeats delegates to the register
func (c *SeatChannel) EffectiveAvailableSeats(schedule *entity.Schedule) int {
	return c.register.EffectiveAvailableSeats(schedule)
}

// Snapshot copies the pushed seat counts
func (c *SeatChannel) Snapshot() map[int64]int {
	return c.register.Snapshot()
}

// OnUpdate registers a listener for applied seat updates. Listeners run on
// the reader goroutine.
func (c *SeatChannel) OnUpdate(fn func(entity.SeatUpdateEvent)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Publish fans an applied update out to listeners
func (c *SeatChannel) Publish(event entity.SeatUpdateEvent) {
	c.listenersMu.RLock()
	listeners := append([]func(entity.SeatUpdateEvent){}, c.listeners...)
	c.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}
}

func (c *SeatChannel) currentStream() SeatStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ChannelConnected {
		return nil
	}
	return c.stream
}

func (c *SeatChannel) sendSubscription(ctx context.Context, stream SeatStream, scheduleID int64, subscribe bool) {
	ctx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	defer cancel()

	var err error
	if subscribe {
		err = stream.Subscribe(ctx, scheduleID)
	} else {
		err = stream.Unsubscribe(ctx, scheduleID)
	}
	if err != nil {
		c.logger.Warn("Failed to send subscription change",
			"scheduleId", scheduleID,
			"subscribe", subscribe,
			"error", err)
	}
}

func (c *SeatChannel) readLoop(ctx context.Context, gen uint64, stream SeatStream, done chan struct{}) {
	defer close(done)

	for {
		frame, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.fail(gen, stream, err)
			return
		}
		if !c.auth.IsAuthenticated() {
			c.signedOut(gen, stream)
			return
		}
		c.dispatch(ctx, frame)
	}
}

// dispatch routes one frame. Malformed frames are logged and dropped.
func (c *SeatChannel) dispatch(ctx context.Context, frame PushFrame) {
	kind, err := frameType(frame)
	if err != nil {
		c.metrics.SeatUpdates.WithLabelValues("malformed").Inc()
		c.logger.Warn("Dropping malformed push frame", "event", frame.Event, "error", err)
		return
	}

	handler := c.router.GetHandler(kind)
	if handler == nil {
		c.metrics.SeatUpdates.WithLabelValues(SeatIgnored).Inc()
		c.logger.Debug("No handler for push frame", "type", kind)
		return
	}

	if err := handler.Handle(ctx, frame.Data); err != nil {
		c.metrics.SeatUpdates.WithLabelValues("malformed").Inc()
		c.logger.Warn("Dropping malformed push frame", "type", kind, "error", err)
	}
}

// fail moves a broken connection through ERROR to DISCONNECTED
func (c *SeatChannel) fail(gen uint64, stream SeatStream, cause error) {
	if !c.release(gen, stream, cause, ChannelError) {
		return
	}
	c.metrics.ErrorsCount.WithLabelValues("seat_channel").Inc()
	c.logger.Error("Seat channel failed", "error", cause)
}

// signedOut drops a connection whose session is gone. Frames read after
// that are never applied.
func (c *SeatChannel) signedOut(gen uint64, stream SeatStream) {
	if c.release(gen, stream, domain.ErrNotAuthenticated, ChannelDisconnected) {
		c.logger.Info("Seat channel closed, session no longer authenticated")
	}
}

// release tears down the connection of generation gen from the reader
// goroutine, passing through via on the way to DISCONNECTED
func (c *SeatChannel) release(gen uint64, stream SeatStream, cause error, via ChannelState) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.lastErr = cause
	c.setStateLocked(via)
	cancel := c.cancel
	c.cancel, c.stream, c.done = nil, nil, nil
	c.setStateLocked(ChannelDisconnected)
	c.mu.Unlock()

	stream.Close()
	if cancel != nil {
		cancel()
	}
	return true
}
