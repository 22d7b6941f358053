package sources

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"etfpulse/internal/types"
)

var (
	cellPolicy = bluemonday.StrictPolicy()

	// Matches grouped numbers like "216,441,906", "$6,425,910" or
	// "1,234.56M"; the grouping commas are stripped so downstream CSV
	// cells stay single-valued.
	groupedNumber = regexp.MustCompile(`^\$?[0-9]{1,3}(,[0-9]{3})+(\.[0-9]+)?[%A-Za-z]{0,2}$`)
)

func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	browserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return doc, nil
}

// extractTable scans the document for the first table carrying all wanted
// columns (case-insensitive) and returns those columns, in the wanted
// order, for up to maxRows data rows.
func extractTable(doc *goquery.Document, wanted []string, maxRows int) (types.Table, error) {
	var result types.Table
	found := false

	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		headers := headerCells(tbl)
		indexes, ok := matchColumns(headers, wanted)
		if !ok {
			return true
		}

		rows := make([][]string, 0, maxRows)
		tbl.Find("tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if maxRows > 0 && len(rows) >= maxRows {
				return false
			}
			cells := tr.Find("td")
			row := make([]string, len(indexes))
			complete := true
			for i, idx := range indexes {
				if idx >= cells.Length() {
					complete = false
					break
				}
				row[i] = cleanCell(cells.Eq(idx).Text())
			}
			if complete {
				rows = append(rows, row)
			}
			return true
		})

		header := make([]string, len(wanted))
		copy(header, wanted)
		result = types.NewTable(header, rows)
		found = true
		return false
	})

	if !found {
		return types.Table{}, fmt.Errorf("no table with columns %v found", wanted)
	}

	return result, nil
}

func headerCells(tbl *goquery.Selection) []string {
	var headers []string
	row := tbl.Find("thead tr").First()
	if row.Length() == 0 {
		row = tbl.Find("tr").First()
	}
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, cleanCell(cell.Text()))
	})
	return headers
}

// matchColumns maps each wanted column name to its position in the page's
// header row. Page headers often carry suffixes (sort arrows, footnote
// marks), so a prefix match is accepted when no exact match exists.
func matchColumns(headers, wanted []string) ([]int, bool) {
	indexes := make([]int, len(wanted))
	for i, want := range wanted {
		idx := -1
		for j, h := range headers {
			if strings.EqualFold(h, want) {
				idx = j
				break
			}
		}
		if idx < 0 {
			for j, h := range headers {
				if strings.HasPrefix(strings.ToLower(h), strings.ToLower(want)) {
					idx = j
					break
				}
			}
		}
		if idx < 0 {
			return nil, false
		}
		indexes[i] = idx
	}
	return indexes, true
}

// cleanCell strips markup, entities and grouping commas from a scraped cell.
func cleanCell(text string) string {
	text = cellPolicy.Sanitize(text)
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")
	if groupedNumber.MatchString(text) {
		text = strings.ReplaceAll(text, ",", "")
	}
	return text
}
