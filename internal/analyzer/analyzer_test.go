package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"etfpulse/internal/types"
)

func statsTable() types.Table {
	return types.NewTable(
		[]string{"Date", "Symbol", "Name", "Volume", "AUM"},
		[][]string{
			{"2025-07-05 08:39:50", "TSLL", "Direxion Daily TSLA Bull 2X Shares", "216,441,906", "$6425910"},
			{"2025-07-05 08:39:50", "SOXL", "Direxion Daily Semiconductor Bull 3x Shares", "178875411", "$12566240"},
			{"2025-07-05 08:39:50", "QQQ", "Invesco QQQ Trust", "n/a", "$290000000"},
		},
	)
}

func TestColumnStats(t *testing.T) {
	got := ColumnStats(statsTable(), "Volume")

	require.Equal(t, 2, got.Count, "non-numeric cells are skipped")
	require.InDelta(t, 197658658.5, got.Mean, 0.5)
	require.Equal(t, 216441906.0, got.Max)
	require.Equal(t, 178875411.0, got.Min)
}

func TestColumnStatsMissingColumn(t *testing.T) {
	got := ColumnStats(statsTable(), "Price")
	require.Zero(t, got.Count)
}

func TestColumnStatsAllNonNumeric(t *testing.T) {
	got := ColumnStats(statsTable(), "Symbol")
	require.Zero(t, got.Count)
}

func TestBuildPromptCarriesBothTablesAndNote(t *testing.T) {
	present := types.NewTable([]string{"Symbol", "Volume"}, [][]string{{"TSLL", "216441906"}})
	earlier := types.NewTable([]string{"Symbol", "Volume"}, [][]string{{"TSLL", "198000000"}})

	prompt := BuildPrompt(present, earlier, "volumes are 3-month averages")

	require.Contains(t, prompt, "volumes are 3-month averages")
	require.Contains(t, prompt, "TSLL,216441906")
	require.Contains(t, prompt, "TSLL,198000000")
	require.Contains(t, prompt, "Symbol,Volume")
}

func TestHistoricalNoteMentionsBothDatesAndMovement(t *testing.T) {
	presentStats := VolumeStats{Count: 2, Mean: 200.0, Max: 300.0, Min: 100.0}
	earlierStats := VolumeStats{Count: 2, Mean: 100.0, Max: 150.0, Min: 50.0}

	note := HistoricalNote(`column "Volume" is a 3-month average daily volume`,
		"2025-07-05", "2025-06-28", presentStats, earlierStats)

	require.Contains(t, note, "2025-07-05")
	require.Contains(t, note, "2025-06-28")
	require.Contains(t, note, "+100.0%")
}

func TestHistoricalNoteWithoutStats(t *testing.T) {
	note := HistoricalNote("desc", "2025-07-05", "2025-06-28", VolumeStats{}, VolumeStats{})

	require.Contains(t, note, "2025-07-05")
	require.NotContains(t, note, "Mean listed volume")
}

func TestComparisonNoteNamesBothWindows(t *testing.T) {
	note := ComparisonNote(
		`column "Avg Daily Share Volume (3mo)" is a 3-month average daily volume`,
		`column "Volume" is a single-day volume`,
	)

	require.Contains(t, note, "3-month average daily")
	require.Contains(t, note, "single-day")
	require.Contains(t, note, "two different listings")
}
