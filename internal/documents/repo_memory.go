package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // owner -> documents in insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, owner string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	docs := make([]Document, len(r.data[owner]))
	copy(docs, r.data[owner])
	r.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].ExpiryDate.Before(docs[j].ExpiryDate)
	})
	return docs, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, owner, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.data[owner] {
		if doc.ID == id {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.UserID] = append(r.data[doc.UserID], doc)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, owner, id string, patch Patch, at time.Time) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[owner]
	for i := range docs {
		if docs[i].ID == id {
			updated := patch.apply(docs[i])
			updated.UpdatedAt = at
			docs[i] = updated
			return updated, nil
		}
	}
	return Document{}, ErrNotFound
}

func (r *MemoryRepo) Delete(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[owner]
	for i := range docs {
		if docs[i].ID == id {
			r.data[owner] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
