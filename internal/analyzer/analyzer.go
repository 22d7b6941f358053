// Package analyzer is the boundary to the natural-language summarization
// collaborator. The pipeline assembles two validated tables and a short
// disambiguating note, sends them across in one request/response exchange
// and passes the returned prose through without inspecting it.
package analyzer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"etfpulse/internal/types"
)

// TrendAnalyzer consumes two tables and a context note and returns prose.
type TrendAnalyzer interface {
	Name() string
	Summarize(ctx context.Context, present, earlier types.Table, note string) (string, error)
}

// NoComparisonData is sent in place of a summary request when the
// historical filter matched no rows for a target date.
const NoComparisonData = "No comparison data is available for the requested dates."

const promptTemplate = `Compare the two tables below. Identify trends in ETF activity,
focusing on changes in market sentiment and health, risk appetite, sector
rotation, and practical trading insights. Quantify significant changes in
volume and AUM as percentages where possible. Summarize your analysis as a
list of findings and explicitly mention the dates of both tables.

Context: %s

Current table:
%s

Earlier table:
%s`

// BuildPrompt renders the single prompt the backends send. Both tables are
// serialized as CSV text, the shape the collaborator was designed around.
func BuildPrompt(present, earlier types.Table, note string) string {
	return fmt.Sprintf(promptTemplate, note, renderCSV(present), renderCSV(earlier))
}

func renderCSV(t types.Table) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(t.Header)
	_ = w.WriteAll(t.Rows)
	w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

// HistoricalNote builds the disambiguating note for a single-source
// historical comparison: both target dates, the averaging window of the
// volume column and the aggregate stats of both subsets.
func HistoricalNote(windowDesc, presentDate, earlierDate string, presentStats, earlierStats VolumeStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "the current table is dated %s and the earlier table %s; %s. ",
		presentDate, earlierDate, windowDesc)
	if presentStats.Count > 0 && earlierStats.Count > 0 {
		fmt.Fprintf(&b, "Mean listed volume moved from %.0f to %.0f (%+.1f%%); the single largest volume moved from %.0f to %.0f.",
			earlierStats.Mean, presentStats.Mean, percentChange(earlierStats.Mean, presentStats.Mean),
			earlierStats.Max, presentStats.Max)
	}
	return b.String()
}

// ComparisonNote builds the disambiguating note for a cross-source
// comparison; the two volume columns cover different averaging windows and
// the analyzer must be told so.
func ComparisonNote(descA, descB string) string {
	return fmt.Sprintf("the tables come from two different listings: in the first, %s; in the second, %s", descA, descB)
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
