// Package sources holds the fetchers the pipeline pulls external data
// through: the two "most active ETFs" listings, the external time source
// and the Lua-scripted custom source.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"etfpulse/internal/types"
)

// TableSource produces one raw table plus its provenance per fetch. Fetch
// failures surface as errors; the retry executor owns all retrying.
type TableSource interface {
	Name() string
	Initialize(ctx context.Context) error
	Fetch(ctx context.Context) (types.Table, types.Provenance, error)
	Schema() Schema
	Shutdown(ctx context.Context) error
}

// TimeSource produces the current date/time from an external service. There
// is deliberately no local-clock fallback: pipeline timestamps must be
// independently verifiable, so an unreachable time source fails the fetch.
type TimeSource interface {
	Name() string
	Fetch(ctx context.Context) (types.TimestampRecord, error)
}

// Schema is the fixed, order-sensitive column contract of one source. The
// averaging window is a data-level fact the orchestrator hands to the
// analyzer: a single-day volume and a 3-month average must never be
// compared silently.
type Schema struct {
	Header          []string
	MinRows         int
	VolumeColumn    string
	AveragingWindow string
}

func (s Schema) Describe() string {
	return fmt.Sprintf("column %q is a %s volume", s.VolumeColumn, s.AveragingWindow)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// browserHeaders makes the scrape look like an ordinary browser visit; both
// listing sites reject bare Go user agents.
func browserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
