// Package validate holds the structural gates a fetched table or timestamp
// must pass before the pipeline will use it.
package validate

import (
	"strings"

	"etfpulse/internal/types"
)

// TableExpectation describes the shape a fetched table must have. Header
// matching is case-insensitive but order-sensitive, since downstream column
// indexing relies on position. Cell values are never inspected here; the
// gate is about shape and cardinality only.
type TableExpectation struct {
	Header  []string
	MinRows int
}

// Table checks the fetched table against the expectation, failing fast on
// the first violated check. The reason names which check failed.
func Table(t types.Table, want TableExpectation) types.ValidationResult {
	if t.IsEmpty() {
		return types.InvalidResult("table is empty")
	}

	if len(t.Header) != len(want.Header) {
		return types.InvalidResult("header has %d columns, want %d", len(t.Header), len(want.Header))
	}

	for i, name := range want.Header {
		got := strings.TrimSpace(t.Header[i])
		if !strings.EqualFold(got, name) {
			return types.InvalidResult("header column %d is %q, want %q", i, got, name)
		}
	}

	if t.NumRows() < want.MinRows {
		return types.InvalidResult("table has %d data rows, want at least %d", t.NumRows(), want.MinRows)
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return types.InvalidResult("row %d has %d cells, header has %d", i+1, len(row), len(t.Header))
		}
	}

	return types.ValidResult()
}
