package sources

import (
	"context"
	"log/slog"
	"net/http"

	"etfpulse/internal/types"
)

const (
	yahooDefaultURL = "https://finance.yahoo.com/markets/etfs/most-active/"
	yahooWindow     = "single-day"
)

// YahooHeader is the fixed, order-sensitive schema extracted from the Yahoo
// Finance most-active ETFs listing. The page carries more columns; only
// these four are taken, in this order.
var YahooHeader = []string{"Symbol", "Name", "Volume", "AUM"}

// YahooSource scrapes the top-N most active ETFs by single-day volume.
type YahooSource struct {
	name       string
	url        string
	maxRows    int
	minRows    int
	httpClient *http.Client
}

func NewYahooSource(name, url string, maxRows, minRows int) *YahooSource {
	if url == "" {
		url = yahooDefaultURL
	}
	if maxRows == 0 {
		maxRows = 20
	}
	if minRows == 0 {
		minRows = maxRows
	}

	return &YahooSource{
		name:       name,
		url:        url,
		maxRows:    maxRows,
		minRows:    minRows,
		httpClient: newHTTPClient(),
	}
}

func (s *YahooSource) Name() string {
	return s.name
}

func (s *YahooSource) Initialize(ctx context.Context) error {
	slog.Info("yahoo source initializing", "source", s.name, "url", s.url, "max_rows", s.maxRows)
	return nil
}

func (s *YahooSource) Schema() Schema {
	return Schema{
		Header:          YahooHeader,
		MinRows:         s.minRows,
		VolumeColumn:    "Volume",
		AveragingWindow: yahooWindow,
	}
}

func (s *YahooSource) Fetch(ctx context.Context) (types.Table, types.Provenance, error) {
	prov := types.Provenance{Source: s.name, URL: s.url}

	doc, err := fetchDocument(ctx, s.httpClient, s.url)
	if err != nil {
		return types.Table{}, prov, types.NewFetchError(s.name, s.url, err)
	}

	table, err := extractTable(doc, YahooHeader, s.maxRows)
	if err != nil {
		return types.Table{}, prov, types.NewFetchError(s.name, s.url, err)
	}

	slog.Debug("yahoo source fetched table", "source", s.name, "rows", table.NumRows())
	return table, prov, nil
}

func (s *YahooSource) Shutdown(ctx context.Context) error {
	return nil
}
