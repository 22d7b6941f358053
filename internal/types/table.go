package types

import (
	"fmt"
	"time"
)

// Table is a header row plus ordered data rows. Every data row carries the
// same number of cells as the header. Tables are treated as immutable once
// produced: transforms return a fresh Table and never touch their input.
type Table struct {
	Header []string
	Rows   [][]string
}

func NewTable(header []string, rows [][]string) Table {
	return Table{Header: header, Rows: rows}
}

func (t Table) NumColumns() int {
	return len(t.Header)
}

func (t Table) NumRows() int {
	return len(t.Rows)
}

func (t Table) IsEmpty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// Clone returns a deep copy so downstream stages can hold their own Table
// without aliasing the producer's row slices.
func (t Table) Clone() Table {
	header := make([]string, len(t.Header))
	copy(header, t.Header)

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		copy(rows[i], row)
	}

	return Table{Header: header, Rows: rows}
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Provenance records where a fetched table or timestamp came from. It is
// carried for audit logging and the run journal only; no correctness logic
// ever reads it.
type Provenance struct {
	Source string
	URL    string
}

func (p Provenance) String() string {
	return fmt.Sprintf("%s (%s)", p.Source, p.URL)
}

// TimestampRecord is a validated date/time string plus its provenance.
// It is produced by the time source, stamped onto a table exactly once and
// then discarded; it is never persisted on its own.
type TimestampRecord struct {
	Value      string
	Provenance Provenance
}

// TimestampLayout is the single accepted canonical date/time format.
const TimestampLayout = "2006-01-02 15:04:05"

// DateOnly returns the calendar-day portion of the timestamp.
func (r TimestampRecord) DateOnly() string {
	if len(r.Value) < len(time.DateOnly) {
		return r.Value
	}
	return r.Value[:len(time.DateOnly)]
}

// ValidationResult is the outcome of a validation gate. Reason is empty when
// Valid is true and names the first violated check otherwise.
type ValidationResult struct {
	Valid  bool
	Reason string
}

func ValidResult() ValidationResult {
	return ValidationResult{Valid: true}
}

func InvalidResult(format string, args ...interface{}) ValidationResult {
	return ValidationResult{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

// DateFilterSpec resolves to the two calendar days a historical comparison
// targets: the anchor day itself and the anchor minus the offset. The offset
// has no default; callers must set it explicitly.
type DateFilterSpec struct {
	Anchor      time.Time
	OffsetDays  int
	OffsetWeeks int
}

// Targets returns the present-day and earlier-day dates, both formatted as
// calendar days.
func (s DateFilterSpec) Targets() (present string, earlier string) {
	offset := time.Duration(s.OffsetDays+7*s.OffsetWeeks) * 24 * time.Hour
	return s.Anchor.Format(time.DateOnly), s.Anchor.Add(-offset).Format(time.DateOnly)
}

func (s DateFilterSpec) HasOffset() bool {
	return s.OffsetDays > 0 || s.OffsetWeeks > 0
}
