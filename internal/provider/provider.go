package provider

import (
	"context"

	"ratematch/internal/rates"
)

// SnapshotSource fetches a complete raw rate snapshot from an external service.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*rates.Snapshot, error)
}
