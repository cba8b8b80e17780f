package history

import (
	"context"
	"sync"

	"github.com/spetersoncode/promptcraft"
)

// MemoryRepository keeps the history in memory only.
type MemoryRepository struct {
	mu    sync.Mutex
	items []Item
	opts  options
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository(opts ...Option) *MemoryRepository {
	return &MemoryRepository{opts: applyOptions(opts)}
}

// Add prepends a new entry.
func (r *MemoryRepository) Add(_ context.Context, in NewItem) (Item, error) {
	item, err := newItem(in, r.opts.now())
	if err != nil {
		return Item{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = prepend(r.items, item, r.opts.cap)
	return item, nil
}

// List returns the entries, newest first.
func (r *MemoryRepository) List(_ context.Context) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Item(nil), r.items...)
	sortNewest(out)
	return out, nil
}

// AttachImage replaces the image of the most recent entry.
func (r *MemoryRepository) AttachImage(_ context.Context, id string, img promptcraft.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sortNewest(r.items)
	return attach(r.items, id, img)
}

// Clear removes every entry.
func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
