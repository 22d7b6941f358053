package sources

import (
	"context"
	"log/slog"
	"net/http"

	"etfpulse/internal/types"
)

const (
	etfdbDefaultURL = "https://etfdb.com/compare/volume/"
	etfdbWindow     = "3-month average daily"
)

// ETFDBHeader is the fixed, order-sensitive schema of the ETF Database
// "highest average volume" listing.
var ETFDBHeader = []string{"Symbol", "Name", "Avg Daily Share Volume (3mo)", "AUM"}

// ETFDBSource scrapes the top-N most active ETFs by 3-month average daily
// share volume.
type ETFDBSource struct {
	name       string
	url        string
	maxRows    int
	minRows    int
	httpClient *http.Client
}

func NewETFDBSource(name, url string, maxRows, minRows int) *ETFDBSource {
	if url == "" {
		url = etfdbDefaultURL
	}
	if maxRows == 0 {
		maxRows = 20
	}
	if minRows == 0 {
		minRows = maxRows
	}

	return &ETFDBSource{
		name:       name,
		url:        url,
		maxRows:    maxRows,
		minRows:    minRows,
		httpClient: newHTTPClient(),
	}
}

func (s *ETFDBSource) Name() string {
	return s.name
}

func (s *ETFDBSource) Initialize(ctx context.Context) error {
	slog.Info("etfdb source initializing", "source", s.name, "url", s.url, "max_rows", s.maxRows)
	return nil
}

func (s *ETFDBSource) Schema() Schema {
	return Schema{
		Header:          ETFDBHeader,
		MinRows:         s.minRows,
		VolumeColumn:    "Avg Daily Share Volume (3mo)",
		AveragingWindow: etfdbWindow,
	}
}

func (s *ETFDBSource) Fetch(ctx context.Context) (types.Table, types.Provenance, error) {
	prov := types.Provenance{Source: s.name, URL: s.url}

	doc, err := fetchDocument(ctx, s.httpClient, s.url)
	if err != nil {
		return types.Table{}, prov, types.NewFetchError(s.name, s.url, err)
	}

	table, err := extractTable(doc, ETFDBHeader, s.maxRows)
	if err != nil {
		return types.Table{}, prov, types.NewFetchError(s.name, s.url, err)
	}

	slog.Debug("etfdb source fetched table", "source", s.name, "rows", table.NumRows())
	return table, prov, nil
}

func (s *ETFDBSource) Shutdown(ctx context.Context) error {
	return nil
}
