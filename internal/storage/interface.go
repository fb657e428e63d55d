package storage

import (
	"context"

	"github.com/mcoot/tkserver/internal/model"
)

// Storage defines the persisted projections of the whitelist
// Every Save rewrites the whole projection
type Storage interface {
	// Identity snapshot operations
	LoadRecords(ctx context.Context) ([]model.IdentityRecord, error)
	SaveRecords(ctx context.Context, records []model.IdentityRecord) error

	// Membership list operations
	LoadMembers(ctx context.Context) ([]string, error)
	SaveMembers(ctx context.Context, ids []string) error

	// TruncateMembers keeps only the first maxLines entries of the persisted
	// membership list and reports whether anything was dropped
	TruncateMembers(ctx context.Context, maxLines int) (bool, error)
}
