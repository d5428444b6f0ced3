package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inzira-booking-client/pkg/logger"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSession_GuestMode(t *testing.T) {
	s := NewSession("", logger.NewNopLogger())
	assert.False(t, s.IsAuthenticated())
	_, ok := s.CustomerID()
	assert.False(t, ok)

	_, err := s.TokenSource().Token()
	assert.Error(t, err)
}

func TestSession_CustomerToken(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"sub":          "aline@example.com",
		"role":         "CUSTOMER",
		"userId":       12,
		"roleEntityId": 77,
		"exp":          time.Now().Add(time.Hour).Unix(),
	})
	s := NewSession(token, logger.NewNopLogger())

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "CUSTOMER", s.Role())
	id, ok := s.CustomerID()
	assert.True(t, ok)
	assert.Equal(t, int64(77), id)

	tok, err := s.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, token, tok.AccessToken)
	assert.False(t, tok.Expiry.IsZero())
}

func TestSession_ExpiredToken(t *testing.T) {
	token := signed(t, jwt.MapClaims{"role": "CUSTOMER", "exp": time.Now().Add(-time.Minute).Unix()})
	s := NewSession(token, logger.NewNopLogger())
	assert.False(t, s.IsAuthenticated())

	s.SetToken("")
	assert.Empty(t, s.Token())
}

func TestSession_OpaqueToken(t *testing.T) {
	s := NewSession("opaque-token", logger.NewNopLogger())
	assert.True(t, s.IsAuthenticated())
	assert.Empty(t, s.Role())
}

func TestSession_Transport(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	s := NewSession("", logger.NewNopLogger())
	client := &http.Client{Transport: s.Transport(nil)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	s.SetToken("opaque-token")
	resp, err = client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"", "Bearer opaque-token"}, got)
}

func TestSession_OnChangeNotifiesSignInAndOut(t *testing.T) {
	s := NewSession("", logger.NewNopLogger())
	defer s.Close()

	var seen []bool
	s.OnChange(func() { seen = append(seen, s.IsAuthenticated()) })

	s.SetToken("opaque-token")
	s.SetToken("")
	assert.Equal(t, []bool{true, false}, seen)
}

func TestSession_ExpiryNotifies(t *testing.T) {
	token := signed(t, jwt.MapClaims{"role": "CUSTOMER", "exp": time.Now().Add(2 * time.Second).Unix()})
	s := NewSession(token, logger.NewNopLogger())
	defer s.Close()

	expired := make(chan bool, 1)
	s.OnChange(func() { expired <- s.IsAuthenticated() })

	select {
	case authenticated := <-expired:
		assert.False(t, authenticated)
	case <-time.After(4 * time.Second):
		t.Fatal("expiry not signalled")
	}
}
