package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"etfpulse/internal/types"
)

func TestETFDBFetchAgainstListingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	src := NewETFDBSource("etfdb", srv.URL, 20, 1)

	table, prov, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, ETFDBHeader, table.Header)
	require.Equal(t, 3, table.NumRows())
	require.Equal(t, "216441906", table.Rows[0][2], "grouping commas are stripped")
	require.Equal(t, srv.URL, prov.URL)
}

func TestETFDBFetchMissingTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>unavailable</p></body></html>`))
	}))
	defer srv.Close()

	src := NewETFDBSource("etfdb", srv.URL, 20, 1)

	_, _, err := src.Fetch(context.Background())
	require.Error(t, err)
	require.True(t, types.IsFetchError(err))
}

func TestETFDBDefaults(t *testing.T) {
	src := NewETFDBSource("etfdb", "", 0, 0)

	schema := src.Schema()
	require.Equal(t, ETFDBHeader, schema.Header)
	require.Equal(t, 20, schema.MinRows, "min rows defaults to the row cap")
	require.Equal(t, "Avg Daily Share Volume (3mo)", schema.VolumeColumn)
}

func TestYahooDefaults(t *testing.T) {
	src := NewYahooSource("yahoo", "", 0, 0)

	schema := src.Schema()
	require.Equal(t, YahooHeader, schema.Header)
	require.Equal(t, "Volume", schema.VolumeColumn)
	require.Equal(t, "single-day", schema.AveragingWindow)
}
