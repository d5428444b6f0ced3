package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inzira-booking-client/internal/usecase"
	"inzira-booking-client/pkg/logger"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	maxMessageSize   = 64 * 1024
)

type subscriptionMessage struct {
	Action     string `json:"action"`
	ScheduleID int64  `json:"scheduleId"`
}

// WebSocketTransport opens a bidirectional seat channel. Subscriptions are
// sent to the server, and events may carry a per-schedule sequence.
type WebSocketTransport struct {
	streamURL string
	dialer    *websocket.Dialer
	logger    logger.Logger
}

// NewWebSocketTransport creates a new WebSocket transport. http and https
// URLs are dialled as ws and wss.
func NewWebSocketTransport(streamURL string, logger logger.Logger) *WebSocketTransport {
	return &WebSocketTransport{
		streamURL: streamURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		logger: logger,
	}
}

// Open dials the server. The connection closes when ctx is done.
func (t *WebSocketTransport) Open(ctx context.Context, token string) (usecase.SeatStream, error) {
	endpoint, err := websocketURL(t.streamURL, token)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial seat channel (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial seat channel: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	stream := &wsStream{conn: conn}
	context.AfterFunc(ctx, func() { stream.Close() })

	t.logger.Debug("WebSocket seat channel opened", "url", t.streamURL)
	return stream, nil
}

type wsStream struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *wsStream) Next(ctx context.Context) (usecase.PushFrame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return usecase.PushFrame{}, err
		}
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return usecase.PushFrame{}, err
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		return usecase.PushFrame{Data: data}, nil
	}
}

func (s *wsStream) Subscribe(ctx context.Context, scheduleID int64) error {
	return s.send(ctx, subscriptionMessage{Action: "subscribe", ScheduleID: scheduleID})
}

func (s *wsStream) Unsubscribe(ctx context.Context, scheduleID int64) error {
	return s.send(ctx, subscriptionMessage{Action: "unsubscribe", ScheduleID: scheduleID})
}

func (s *wsStream) send(ctx context.Context, msg subscriptionMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to send %s for schedule %d: %w", msg.Action, msg.ScheduleID, err)
	}
	return nil
}

// Close sends a close frame and releases the connection
func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		// WriteControl may run concurrently with WriteMessage
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)

		err = s.conn.Close()
	})
	return err
}

func websocketURL(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid seat channel url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
