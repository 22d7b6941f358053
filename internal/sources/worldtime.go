package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"etfpulse/internal/types"
)

const worldTimeDefaultURL = "https://worldtimeapi.org/api/timezone/America/Chicago"

// WorldTimeSource fetches the current date/time from a public time API and
// normalizes it to the pipeline's canonical layout. Failures are fetch
// errors for the retry executor; the local clock is never consulted.
type WorldTimeSource struct {
	name       string
	url        string
	httpClient *http.Client
}

type worldTimeResponse struct {
	Datetime string `json:"datetime"`
	Timezone string `json:"timezone"`
}

func NewWorldTimeSource(name, url string) *WorldTimeSource {
	if url == "" {
		url = worldTimeDefaultURL
	}

	return &WorldTimeSource{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WorldTimeSource) Name() string {
	return s.name
}

func (s *WorldTimeSource) Fetch(ctx context.Context) (types.TimestampRecord, error) {
	prov := types.Provenance{Source: s.name, URL: s.url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return types.TimestampRecord{}, types.NewFetchError(s.name, s.url, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.TimestampRecord{}, types.NewFetchError(s.name, s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.TimestampRecord{}, types.NewFetchError(s.name, s.url,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.TimestampRecord{}, types.NewFetchError(s.name, s.url, err)
	}

	var parsed worldTimeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return types.TimestampRecord{}, types.NewFetchError(s.name, s.url,
			fmt.Errorf("malformed time response: %w", err))
	}

	ts, err := time.Parse(time.RFC3339Nano, parsed.Datetime)
	if err != nil {
		return types.TimestampRecord{}, types.NewFetchError(s.name, s.url,
			fmt.Errorf("unparseable datetime %q: %w", parsed.Datetime, err))
	}

	record := types.TimestampRecord{
		Value:      ts.Format(types.TimestampLayout),
		Provenance: prov,
	}

	slog.Debug("time source fetched timestamp", "source", s.name, "value", record.Value, "timezone", parsed.Timezone)
	return record, nil
}
