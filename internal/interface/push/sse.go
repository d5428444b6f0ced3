package push

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"inzira-booking-client/internal/usecase"
	"inzira-booking-client/pkg/logger"
)

const maxFrameLine = 64 * 1024

// SSETransport opens a text/event-stream of seat updates. The server pushes
// every schedule's updates; subscriptions are filtered client side.
type SSETransport struct {
	streamURL  string
	httpClient *http.Client
	logger     logger.Logger
}

// NewSSETransport creates a new SSE transport. client must not set a
// response timeout since the stream is long lived.
func NewSSETransport(streamURL string, client *http.Client, logger logger.Logger) *SSETransport {
	if client == nil {
		client = &http.Client{}
	}
	return &SSETransport{
		streamURL:  streamURL,
		httpClient: client,
		logger:     logger,
	}
}

// Open starts the stream. It stays open until ctx is done or Close is called.
func (t *SSETransport) Open(ctx context.Context, token string) (usecase.SeatStream, error) {
	endpoint, err := withToken(t.streamURL, token)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open seat stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("seat stream returned status %d", resp.StatusCode)
	}

	t.logger.Debug("SSE stream opened", "url", t.streamURL)
	return &sseStream{
		body:   resp.Body,
		reader: bufio.NewReaderSize(resp.Body, 4096),
		cancel: cancel,
	}, nil
}

type sseStream struct {
	body      io.ReadCloser
	reader    *bufio.Reader
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Next reads up to the next blank-line terminated event. Reads unblock when
// the stream context is cancelled or the stream is closed.
func (s *sseStream) Next(ctx context.Context) (usecase.PushFrame, error) {
	var (
		event   string
		data    []string
		hasData bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return usecase.PushFrame{}, err
		}

		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return usecase.PushFrame{}, io.ErrUnexpectedEOF
			}
			return usecase.PushFrame{}, err
		}

		if line == "" {
			if hasData || event != "" {
				return usecase.PushFrame{Event: event, Data: []byte(strings.Join(data, "\n"))}, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data = append(data, value)
			hasData = true
		}
	}
}

func (s *sseStream) readLine() (string, error) {
	var b strings.Builder
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			return "", err
		}
		if b.Len()+len(chunk) > maxFrameLine {
			return "", fmt.Errorf("seat stream line exceeds %d bytes", maxFrameLine)
		}
		b.Write(chunk)
		if !isPrefix {
			return b.String(), nil
		}
	}
}

// Subscribe is a no-op; the SSE endpoint has no subscription messages
func (s *sseStream) Subscribe(ctx context.Context, scheduleID int64) error {
	return nil
}

// Unsubscribe is a no-op; the SSE endpoint has no subscription messages
func (s *sseStream) Unsubscribe(ctx context.Context, scheduleID int64) error {
	return nil
}

func (s *sseStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.body.Close()
	})
	return err
}

// withToken appends the bearer token as a query parameter
func withToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid seat stream url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
