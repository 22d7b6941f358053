package analyzer

import (
	"strconv"
	"strings"

	"github.com/viterin/vek"

	"etfpulse/internal/types"
)

// VolumeStats are the aggregates folded into the analyzer's context note so
// the collaborator gets the headline numbers without having to do the
// arithmetic itself.
type VolumeStats struct {
	Count int
	Mean  float64
	Max   float64
	Min   float64
}

// ColumnStats computes aggregates over the named numeric column. Cells that
// do not parse as numbers are skipped; an entirely non-numeric column yields
// a zero-count result.
func ColumnStats(t types.Table, column string) VolumeStats {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return VolumeStats{}
	}

	values := make([]float64, 0, t.NumRows())
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(strings.ReplaceAll(row[idx], ",", ""))
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return VolumeStats{}
	}

	return VolumeStats{
		Count: len(values),
		Mean:  vek.Mean(values),
		Max:   vek.Max(values),
		Min:   vek.Min(values),
	}
}
