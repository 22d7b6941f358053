package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"etfpulse/internal/types"
)

func TestWorldTimeFetchNormalizesToCanonicalLayout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"datetime":"2025-07-05T08:39:50.123456-05:00","timezone":"America/Chicago"}`))
	}))
	defer srv.Close()

	src := NewWorldTimeSource("worldtime", srv.URL)

	record, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025-07-05 08:39:50", record.Value)
	require.Equal(t, "worldtime", record.Provenance.Source)
	require.Equal(t, srv.URL, record.Provenance.URL)
}

func TestWorldTimeFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewWorldTimeSource("worldtime", srv.URL)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	require.True(t, types.IsFetchError(err))
}

func TestWorldTimeFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>backend error</html>`))
	}))
	defer srv.Close()

	src := NewWorldTimeSource("worldtime", srv.URL)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	require.True(t, types.IsFetchError(err))
}

func TestWorldTimeFetchUnparseableDatetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"datetime":"yesterday at noon","timezone":"America/Chicago"}`))
	}))
	defer srv.Close()

	src := NewWorldTimeSource("worldtime", srv.URL)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	require.True(t, types.IsFetchError(err))
}

func TestWorldTimeFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	src := NewWorldTimeSource("worldtime", srv.URL)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	require.True(t, types.IsFetchError(err), "an unreachable time source is a fetch error, never a local-clock fallback")
}
