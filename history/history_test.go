package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock returns a clock that advances one millisecond per call.
func tickingClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func entry(prompt string) NewItem {
	return NewItem{
		Prompt:     prompt,
		BasePrompt: prompt,
		Style:      "Anime",
		Image:      promptcraft.Image{Data: "aW1n", MimeType: "image/png"},
	}
}

func repositories(t *testing.T, opts ...Option) map[string]Repository {
	return map[string]Repository{
		"memory":  NewMemoryRepository(opts...),
		"storage": NewStorageRepository(store.NewMemoryStorage(), nil, opts...),
	}
}

func TestRepository_AddPrependsAndCaps(t *testing.T) {
	for name, repo := range repositories(t, WithCap(3), WithClock(tickingClock())) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				item, err := repo.Add(ctx, entry(fmt.Sprintf("prompt %d", i)))
				require.NoError(t, err)
				assert.NotEmpty(t, item.ID)

				items, err := repo.List(ctx)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(items), 3)
				assert.Equal(t, item.ID, items[0].ID)
			}

			items, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, items, 3)
			assert.Equal(t, "prompt 4", items[0].Prompt)
			assert.Equal(t, "prompt 2", items[2].Prompt)
		})
	}
}

func TestRepository_DefaultCap(t *testing.T) {
	repo := NewMemoryRepository(WithCap(0))
	ctx := context.Background()
	for i := 0; i < DefaultCap+5; i++ {
		_, err := repo.Add(ctx, entry("p"))
		require.NoError(t, err)
	}
	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, DefaultCap)
}

func TestRepository_RejectsMissingImage(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.Add(context.Background(), NewItem{Prompt: "no image"})
	assert.Equal(t, promptcraft.KindInvalidInput, promptcraft.KindOf(err))

	items, _ := repo.List(context.Background())
	assert.Empty(t, items)
}

func TestRepository_AttachImage(t *testing.T) {
	for name, repo := range repositories(t, WithClock(tickingClock())) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			older, err := repo.Add(ctx, entry("older"))
			require.NoError(t, err)
			latest, err := repo.Add(ctx, entry("latest"))
			require.NoError(t, err)

			updated := promptcraft.Image{Data: "bmV3", MimeType: "image/jpeg"}
			require.NoError(t, repo.AttachImage(ctx, latest.ID, updated))
			assert.ErrorIs(t, repo.AttachImage(ctx, older.ID, updated), ErrNotLatest)
			assert.ErrorIs(t, repo.AttachImage(ctx, "missing", updated), ErrNotFound)

			items, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, updated, items[0].Image())
			assert.Equal(t, "aW1n", items[1].ImageData)
		})
	}
}

func TestRepository_Clear(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	repo := NewStorageRepository(storage, nil)

	_, err := repo.Add(ctx, entry("p"))
	require.NoError(t, err)
	_, ok, _ := storage.Get(ctx, StorageKey)
	require.True(t, ok)

	require.NoError(t, repo.Clear(ctx))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, ok, err = storage.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorageRepository_SortsStoredItems(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	stored := []Item{
		{ID: "a", Prompt: "oldest", ImageData: "x", Timestamp: 100},
		{ID: "c", Prompt: "newest", ImageData: "x", Timestamp: 300},
		{ID: "b", Prompt: "middle", ImageData: "x", Timestamp: 200},
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, storage.Set(ctx, StorageKey, raw))

	items, err := NewStorageRepository(storage, nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func TestStorageRepository_CorruptDataIsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, StorageKey, json.RawMessage(`{"not":"a list"}`)))

	repo := NewStorageRepository(storage, nil)
	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.Add(ctx, entry("fresh"))
	require.NoError(t, err)
	items, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStorageRepository_Reload(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	source := promptcraft.Image{Data: "c3Jj", MimeType: "image/webp"}

	first := NewStorageRepository(storage, nil)
	in := entry("persisted")
	in.SourceImage = &source
	_, err := first.Add(ctx, in)
	require.NoError(t, err)

	items, err := NewStorageRepository(storage, nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "persisted", items[0].Prompt)
	require.NotNil(t, items[0].SourceImage)
	assert.Equal(t, source, *items[0].SourceImage)
}

// sequenceClock returns the given millisecond timestamps in order.
func sequenceClock(ms ...int64) func() time.Time {
	i := 0
	return func() time.Time {
		t := time.UnixMilli(ms[i])
		i++
		return t
	}
}

func timestamps(items []Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.Timestamp
	}
	return out
}

func TestRepository_ListNewestFirst(t *testing.T) {
	tests := []struct {
		name string
		cap  int
		want []int64
	}{
		{"uncapped", 10, []int64{3000, 2000, 1000}},
		{"capped", 2, []int64{3000, 2000}},
	}
	for _, tt := range tests {
		for _, name := range []string{"memory", "storage"} {
			repo := repositories(t, WithCap(tt.cap), WithClock(sequenceClock(3000, 1000, 2000)))[name]
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				ctx := context.Background()
				for _, p := range []string{"first", "second", "third"} {
					_, err := repo.Add(ctx, entry(p))
					require.NoError(t, err)
				}

				items, err := repo.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, tt.want, timestamps(items))
			})
		}
	}
}

func TestStorageRepository_CapsStoredItems(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	stored := make([]Item, 60)
	for i := range stored {
		stored[i] = Item{ID: fmt.Sprintf("id-%d", i), Prompt: "p", ImageData: "x", Timestamp: int64(i + 1)}
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, storage.Set(ctx, StorageKey, raw))

	items, err := NewStorageRepository(storage, nil, WithCap(50)).List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 50)
	assert.Equal(t, int64(60), items[0].Timestamp)
	assert.Equal(t, int64(11), items[49].Timestamp)
}

// flakyStorage fails every Set while failSet is true.
type flakyStorage struct {
	*store.MemoryStorage
	failSet bool
}

func (s *flakyStorage) Set(ctx context.Context, key string, value json.RawMessage) error {
	if s.failSet {
		return errors.New("disk full")
	}
	return s.MemoryStorage.Set(ctx, key, value)
}

func TestStorageRepository_FailedSaveKeepsList(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStorage{MemoryStorage: store.NewMemoryStorage()}
	repo := NewStorageRepository(storage, nil, WithClock(tickingClock()))

	saved, err := repo.Add(ctx, entry("saved"))
	require.NoError(t, err)

	storage.failSet = true
	_, err = repo.Add(ctx, entry("lost"))
	require.Error(t, err)

	err = repo.AttachImage(ctx, saved.ID, promptcraft.Image{Data: "bmV3", MimeType: "image/jpeg"})
	require.Error(t, err)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "saved", items[0].Prompt)
	assert.Equal(t, "aW1n", items[0].ImageData)
	assert.Equal(t, "image/png", items[0].MimeType)
}
