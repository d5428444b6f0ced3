package auth

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"inzira-booking-client/pkg/logger"
)

// Role that owns bookings
const RoleCustomer = "CUSTOMER"

var errNoToken = errors.New("no session token")

// Session holds the bearer token issued by the booking API. An empty token
// means guest mode. Tokens are never verified here; the API does that.
type Session struct {
	mu     sync.RWMutex
	token  string
	claims jwt.MapClaims
	now    func() time.Time
	logger logger.Logger

	listenersMu sync.Mutex
	listeners   []func()
	expiry      *time.Timer
}

// NewSession creates a session for token, which may be empty
func NewSession(token string, logger logger.Logger) *Session {
	s := &Session{now: time.Now, logger: logger}
	s.SetToken(token)
	return s
}

// SetToken replaces the token, e.g. after sign-in or sign-out, and notifies
// listeners. Listeners are notified again when the token expires.
func (s *Session) SetToken(token string) {
	claims := jwt.MapClaims{}
	if token != "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			s.logger.Warn("Session token is not a readable JWT", "error", err)
			claims = nil
		}
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	s.scheduleExpiry(claims)
	s.notify()
}

// OnChange registers a listener for sign-in, sign-out and expiry.
// Listeners run on the goroutine that changed the session.
func (s *Session) OnChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close stops the expiry timer
func (s *Session) Close() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

func (s *Session) notify() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (s *Session) scheduleExpiry(claims jwt.MapClaims) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	if claims == nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	until := exp.Time.Sub(s.now())
	if until <= 0 {
		return
	}
	s.expiry = time.AfterFunc(until, func() {
		s.logger.Info("Session token expired")
		s.notify()
	})
}

// Token returns the raw bearer token
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated is true for a non-empty token that has not expired.
// Opaque tokens without claims count as authenticated.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return false
	}
	if s.claims == nil {
		return true
	}
	exp, err := s.claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return s.now().Before(exp.Time)
}

// Role returns the "role" claim
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, _ := s.claims["role"].(string)
	return role
}

// CustomerID returns the customer entity id for CUSTOMER tokens
func (s *Session) CustomerID() (int64, bool) {
	if !s.IsAuthenticated() || s.Role() != RoleCustomer {
		return 0, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch id := s.claims["roleEntityId"].(type) {
	case float64:
		return int64(id), id > 0
	default:
		return 0, false
	}
}

// TokenSource exposes the current token to oauth2 transports
func (s *Session) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{session: s}
}

type sessionTokenSource struct {
	session *Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	token := ts.session.Token()
	if token == "" {
		return nil, errNoToken
	}

	t := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	ts.session.mu.RLock()
	if exp, err := ts.session.claims.GetExpirationTime(); err == nil && exp != nil {
		t.Expiry = exp.Time
	}
	ts.session.mu.RUnlock()
	return t, nil
}

// Transport sends the bearer token while authenticated and nothing otherwise
func (s *Session) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &sessionTransport{
		session: s,
		base:    base,
		bearer:  &oauth2.Transport{Source: s.TokenSource(), Base: base},
	}
}

type sessionTransport struct {
	session *Session
	base    http.RoundTripper
	bearer  *oauth2.Transport
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.session.IsAuthenticated() {
		return t.base.RoundTrip(req)
	}
	return t.bearer.RoundTrip(req)
}
