package vies

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSplitVATID(t *testing.T) {
	country, number, err := SplitVATID(" pl 526-10-40-828 ")
	require.Error(t, err) // dashes are not part of a VAT id

	country, number, err = SplitVATID("PL5261040828")
	require.NoError(t, err)
	require.Equal(t, "PL", country)
	require.Equal(t, "5261040828", number)

	country, number, err = SplitVATID("de 129273398")
	require.NoError(t, err)
	require.Equal(t, "DE", country)
	require.Equal(t, "129273398", number)

	_, _, err = SplitVATID("X")
	require.ErrorIs(t, err, ErrMalformedVATID)
}

func TestClientCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest-api/ms/DE/vat/129273398", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid":true,"name":"AGRO TECH GMBH","address":"FELDWEG 1\n80331 MUENCHEN"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, 1, 5, 0.5, time.Minute, zerolog.Nop())
	c.HTTP.Client = srv.Client()

	result, err := c.Check(context.Background(), "DE129273398")
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "AGRO TECH GMBH", result.Name)
	require.Equal(t, "FELDWEG 1 80331 MUENCHEN", result.Address)
}

func TestClientCheckInvalidID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid":false,"name":"---","address":"---"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, 1, 5, 0.5, time.Minute, zerolog.Nop())
	c.HTTP.Client = srv.Client()

	result, err := c.Check(context.Background(), "DE000000000")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Empty(t, result.Name)
}

func TestClientCheckUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, 1, 5, 0.5, time.Minute, zerolog.Nop())
	c.HTTP.Client = srv.Client()

	_, err := c.Check(context.Background(), "DE129273398")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClientRejectsMalformedBeforeNetwork(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, 1, 5, 0.5, time.Minute, zerolog.Nop())
	_, err := c.Check(context.Background(), "not-a-vat-id")
	require.ErrorIs(t, err, ErrMalformedVATID)
}
