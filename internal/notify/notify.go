// Package notify delivers the finished trend summary to optional targets.
// Delivery failures are logged and never turn a Done run into a Failed one:
// the summary already exists, losing a notification does not un-produce it.
package notify

import (
	"context"
	"time"

	"etfpulse/internal/types"
)

// Summary is the finished product of one successful pipeline run.
type Summary struct {
	Workflow   string
	RunDate    string
	Prose      string
	Provenance []types.Provenance
	Created    time.Time
}

type Notifier interface {
	Name() string
	Initialize(ctx context.Context) error
	Publish(ctx context.Context, summary *Summary) error
	Shutdown(ctx context.Context) error
}
