package documents

import (
	"context"
	"time"
)

// Repo persists documents. Every operation is scoped to the owning user; a
// row owned by someone else behaves exactly like a missing row.
type Repo interface {
	// ListByOwner returns the owner's documents by ascending expiry date.
	ListByOwner(ctx context.Context, owner string) ([]Document, error)
	GetByID(ctx context.Context, owner, id string) (Document, error)
	Create(ctx context.Context, doc Document) error
	Update(ctx context.Context, owner, id string, patch Patch, at time.Time) (Document, error)
	Delete(ctx context.Context, owner, id string) error
}
