package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/agroflight/backend-shop/internal/b2b"
)

func newTestService(t *testing.T, secret string) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Store:          b2b.NewStore(nil),
		Logger:         zerolog.Nop(),
		Secret:         secret,
		AccessTokenTTL: time.Hour,
		Issuer:         "backend-shop",
		Audience:       "shop-frontend",
		ClockSkew:      time.Second,
	})
	require.NoError(t, err)
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(t, "test-secret-test-secret")

	token, expiresAt, err := svc.signAccessToken("c1f8c6d2-0000-4000-8000-000000000001")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	subject, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "c1f8c6d2-0000-4000-8000-000000000001", subject)
}

func TestAccessTokenExpired(t *testing.T) {
	svc := newTestService(t, "test-secret-test-secret")
	svc.WithNow(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, _, err := svc.signAccessToken("sub")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseAccessToken(token)
	require.Error(t, err)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	issuer := newTestService(t, "secret-one-secret-one")
	verifier := newTestService(t, "secret-two-secret-two")

	token, _, err := issuer.signAccessToken("sub")
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(token)
	require.Error(t, err)
}

func TestAccessTokenGarbageRejected(t *testing.T) {
	svc := newTestService(t, "test-secret-test-secret")

	_, err := svc.ParseAccessToken("")
	require.Error(t, err)

	_, err = svc.ParseAccessToken("not.a.token")
	require.Error(t, err)

	// A token with the signature stripped must not parse.
	token, _, err := svc.signAccessToken("sub")
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	_, err = svc.ParseAccessToken(parts[0] + "." + parts[1] + ".")
	require.Error(t, err)
}
