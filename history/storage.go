package history

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/store"
)

// StorageRepository persists the history as one JSON list in a store.Storage.
// The list is read on first use and written back after every change.
type StorageRepository struct {
	mu      sync.Mutex
	storage store.Storage
	key     string
	items   []Item
	loaded  bool
	opts    options
	logger  *slog.Logger
}

// NewStorageRepository creates a repository backed by storage under StorageKey.
func NewStorageRepository(storage store.Storage, logger *slog.Logger, opts ...Option) *StorageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageRepository{
		storage: storage,
		key:     StorageKey,
		opts:    applyOptions(opts),
		logger:  logger,
	}
}

// load reads the persisted list once. Unparseable data is logged and
// treated as an empty history.
func (r *StorageRepository) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	items, _, err := store.GetJSON[[]Item](ctx, r.storage, r.key)
	if err != nil {
		var serr *store.SerializationError
		if !errors.As(err, &serr) {
			return err
		}
		r.logger.Error("failed to parse stored history", "key", r.key, "error", err)
		items = nil
	}
	sortNewest(items)
	r.items = truncate(items, r.opts.cap)
	r.loaded = true
	return nil
}

// save persists items and, once written, makes them the current list.
func (r *StorageRepository) save(ctx context.Context, items []Item) error {
	if err := store.SetJSON(ctx, r.storage, r.key, items); err != nil {
		r.logger.Error("failed to save history", "key", r.key, "error", err)
		return err
	}
	r.items = items
	return nil
}

// Add prepends a new entry and persists the list.
func (r *StorageRepository) Add(ctx context.Context, in NewItem) (Item, error) {
	item, err := newItem(in, r.opts.now())
	if err != nil {
		return Item{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return Item{}, err
	}
	if err := r.save(ctx, prepend(r.items, item, r.opts.cap)); err != nil {
		return Item{}, err
	}
	return item, nil
}

// List returns the entries, newest first.
func (r *StorageRepository) List(ctx context.Context) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	out := append([]Item(nil), r.items...)
	sortNewest(out)
	return out, nil
}

// AttachImage replaces the image of the most recent entry and persists the list.
func (r *StorageRepository) AttachImage(ctx context.Context, id string, img promptcraft.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(ctx); err != nil {
		return err
	}
	items := append([]Item(nil), r.items...)
	if err := attach(items, id, img); err != nil {
		return err
	}
	return r.save(ctx, items)
}

// Clear removes every entry and the persisted key.
func (r *StorageRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
	r.loaded = true
	return r.storage.Delete(ctx, r.key)
}

var _ Repository = (*StorageRepository)(nil)
