package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"etfpulse/internal/types"
)

var header = []string{"Date", "Symbol", "Name", "Volume", "AUM"}

func table(rows ...[]string) types.Table {
	return types.NewTable(header, rows)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestWriteOverwriteRoundTrips(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	in := table([]string{"2025-07-05 08:39:50", "TSLL", "Direxion Daily TSLA Bull 2X Shares", "216441906", "$6425910"})
	require.NoError(t, s.Write(ctx, "etf_volume", in, Overwrite))

	got, err := s.Read(ctx, "etf_volume")
	require.NoError(t, err)
	require.Equal(t, in.Header, got.Header)
	require.Equal(t, in.Rows, got.Rows)
}

func TestWriteOverwriteReplacesExistingRows(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "etf_volume",
		table([]string{"2025-06-28 08:12:00", "SOXL", "Direxion Daily Semiconductor Bull 3x Shares", "170000000", "$12000000"}),
		Overwrite))
	require.NoError(t, s.Write(ctx, "etf_volume",
		table([]string{"2025-07-05 08:39:50", "TSLL", "Direxion Daily TSLA Bull 2X Shares", "216441906", "$6425910"}),
		Overwrite))

	got, err := s.Read(ctx, "etf_volume")
	require.NoError(t, err)
	require.Equal(t, 1, got.NumRows())
	require.Equal(t, "TSLL", got.Rows[0][1])
}

func TestAppendPreservesExistingRowsAndOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := table([]string{"2025-06-28 08:12:00", "SOXL", "Direxion Daily Semiconductor Bull 3x Shares", "170000000", "$12000000"})
	second := table(
		[]string{"2025-07-05 08:39:50", "TSLL", "Direxion Daily TSLA Bull 2X Shares", "216441906", "$6425910"},
		[]string{"2025-07-05 08:39:50", "QQQ", "Invesco QQQ Trust", "45000000", "$290000000"},
	)

	require.NoError(t, s.Write(ctx, "etf_volume", first, Append))
	require.NoError(t, s.Write(ctx, "etf_volume", second, Append))

	got, err := s.Read(ctx, "etf_volume")
	require.NoError(t, err)
	require.Equal(t, header, got.Header, "the header is written once")
	require.Equal(t, 3, got.NumRows())
	require.Equal(t, "SOXL", got.Rows[0][1])
	require.Equal(t, "TSLL", got.Rows[1][1])
	require.Equal(t, "QQQ", got.Rows[2][1])
}

func TestFirstAppendCreatesDataset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	in := table([]string{"2025-07-05 08:39:50", "TSLL", "Direxion Daily TSLA Bull 2X Shares", "216441906", "$6425910"})
	require.NoError(t, s.Write(ctx, "etf_volume", in, Append))

	got, err := s.Read(ctx, "etf_volume")
	require.NoError(t, err)
	require.Equal(t, header, got.Header)
	require.Equal(t, 1, got.NumRows())
}

func TestAppendWithDriftedHeaderIsFatalAndNonDestructive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	seeded := table([]string{"2025-06-28 08:12:00", "SOXL", "Direxion Daily Semiconductor Bull 3x Shares", "170000000", "$12000000"})
	require.NoError(t, s.Write(ctx, "etf_volume", seeded, Overwrite))

	drifted := types.NewTable(
		[]string{"Date", "Ticker", "Name", "Volume", "AUM"},
		[][]string{{"2025-07-05 08:39:50", "TSLL", "Direxion Daily TSLA Bull 2X Shares", "216441906", "$6425910"}},
	)

	err := s.Write(ctx, "etf_volume", drifted, Append)
	require.Error(t, err)
	require.True(t, types.IsSchemaMismatch(err))

	var se *types.SchemaMismatchError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "etf_volume", se.Dataset)
	require.Equal(t, header, se.Want)

	got, readErr := s.Read(ctx, "etf_volume")
	require.NoError(t, readErr)
	require.Equal(t, seeded.Rows, got.Rows, "a rejected append must leave the dataset untouched")
}

func TestReadMissingDataset(t *testing.T) {
	s := newStore(t)

	_, err := s.Read(context.Background(), "never_written")
	require.Error(t, err)
	require.True(t, types.IsNotFound(err))
}

func TestWriteQuotedCells(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	in := table([]string{"2025-07-05 08:39:50", "BRK.B", `iShares "Core" S&P, Total`, "4100000", "$50000000"})
	require.NoError(t, s.Write(ctx, "etf_volume", in, Overwrite))

	got, err := s.Read(ctx, "etf_volume")
	require.NoError(t, err)
	require.Equal(t, in.Rows, got.Rows, "commas and quotes survive the CSV round trip")
}

func TestNewRequiresDirectory(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}
