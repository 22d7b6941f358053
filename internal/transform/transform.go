// Package transform holds the pure table transforms the pipeline applies
// between the validation gate and persistence. Every function returns a new
// table and leaves its input untouched, so transforms compose freely.
package transform

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"etfpulse/internal/types"
)

// DateColumnName is the header of the prepended column.
const DateColumnName = "Date"

var titleCaser = cases.Title(language.English)

// AddDateColumn returns a new table with Date prepended as the first column
// and every data row stamped with the same timestamp value. The remaining
// columns keep their relative order.
func AddDateColumn(t types.Table, stamp types.TimestampRecord) types.Table {
	header := make([]string, 0, len(t.Header)+1)
	header = append(header, DateColumnName)
	header = append(header, t.Header...)

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		stamped := make([]string, 0, len(row)+1)
		stamped = append(stamped, stamp.Value)
		stamped = append(stamped, row...)
		rows[i] = stamped
	}

	return types.NewTable(header, rows)
}

// StandardizeHeaders canonicalizes header text without changing column order
// or count: surrounding whitespace is trimmed, runs of inner whitespace
// collapse to one space, and fully lowercase words are title-cased.
// Words that carry digits, punctuation or existing capitals ("AUM",
// "(3mo)") pass through unchanged.
func StandardizeHeaders(t types.Table) types.Table {
	out := t.Clone()
	for i, h := range out.Header {
		out.Header[i] = canonicalizeHeader(h)
	}
	return out
}

func canonicalizeHeader(h string) string {
	words := strings.Fields(h)
	for i, w := range words {
		if isLowerAlpha(w) {
			words[i] = titleCaser.String(w)
		}
	}
	return strings.Join(words, " ")
}

func isLowerAlpha(w string) bool {
	for _, r := range w {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return len(w) > 0
}
