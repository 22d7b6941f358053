// Package filter selects the rows of a cumulative dataset that belong to the
// two calendar days a historical comparison targets.
package filter

import (
	"strings"

	"etfpulse/internal/transform"
	"etfpulse/internal/types"
)

// ByDate partitions the table's data rows by matching the calendar-day
// portion of the Date column against the two targets derived from spec:
// the anchor day and the anchor minus the offset. Matching is by day
// equality only; time of day is ignored. Rows matching neither day are left
// out of both subsets. Both subsets keep the full header and column order.
//
// An empty subset is a soft condition: the subsets are still returned and
// the error is an *types.EmptyFilterError the orchestrator forwards to the
// analysis step as a no-comparison-data signal, not a failure.
func ByDate(t types.Table, spec types.DateFilterSpec) (present types.Table, earlier types.Table, err error) {
	presentDay, earlierDay := spec.Targets()

	dateIdx := t.ColumnIndex(transform.DateColumnName)
	if dateIdx < 0 {
		dateIdx = 0
	}

	present = types.NewTable(t.Clone().Header, nil)
	earlier = types.NewTable(t.Clone().Header, nil)

	for _, row := range t.Rows {
		if dateIdx >= len(row) {
			continue
		}
		day := dayPortion(row[dateIdx])
		switch day {
		case presentDay:
			present.Rows = append(present.Rows, cloneRow(row))
		case earlierDay:
			earlier.Rows = append(earlier.Rows, cloneRow(row))
		}
	}

	if len(present.Rows) == 0 || len(earlier.Rows) == 0 {
		err = &types.EmptyFilterError{
			PresentEmpty: len(present.Rows) == 0,
			EarlierEmpty: len(earlier.Rows) == 0,
		}
	}

	return present, earlier, err
}

// dayPortion strips the time of day from a "YYYY-MM-DD HH:mm:ss" cell.
func dayPortion(cell string) string {
	cell = strings.TrimSpace(cell)
	if len(cell) > 10 {
		return cell[:10]
	}
	return cell
}

func cloneRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}
