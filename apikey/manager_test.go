package apikey

import (
	"context"
	"errors"
	"testing"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInvalidKey = promptcraft.NewError(promptcraft.KindInvalidKey, "API key not valid", 400, nil)

func TestManager_Env(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		t.Setenv("PROMPTCRAFT_TEST_KEY", " abc ")
		m := NewManager(NewEnvStrategy("PROMPTCRAFT_TEST_KEY"))
		state, err := m.Init(ctx)
		require.NoError(t, err)
		assert.Equal(t, Ready, state)

		key, err := m.Key()
		require.NoError(t, err)
		assert.Equal(t, "abc", key)
		assert.ErrorIs(t, m.Submit(ctx, "other"), ErrUnsupported)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("PROMPTCRAFT_TEST_KEY", "")
		m := NewManager(NewEnvStrategy("PROMPTCRAFT_TEST_KEY"))
		state, err := m.Init(ctx)
		require.NoError(t, err)
		assert.Equal(t, NoKey, state)
		_, err = m.Key()
		assert.ErrorIs(t, err, ErrNoKey)
	})
}

func TestManager_Session(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewSessionStrategy())

	state, err := m.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, NoKey, state)

	assert.True(t, promptcraft.IsInvalidKey(m.Submit(ctx, "   ")))
	require.NoError(t, m.Submit(ctx, "session-key"))
	assert.Equal(t, Ready, m.State())
}

func TestManager_PersistentSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()

	first := NewManager(NewPersistentStrategy(storage))
	require.NoError(t, first.Submit(ctx, "persisted-key"))

	second := NewManager(NewPersistentStrategy(storage))
	state, err := second.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, Ready, state)
	key, _ := second.Key()
	assert.Equal(t, "persisted-key", key)
}

func TestManager_HandleError(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	m := NewManager(NewPersistentStrategy(storage))
	require.NoError(t, m.Submit(ctx, "bad-key"))

	assert.False(t, m.HandleError(ctx, promptcraft.NewRateLimitError("quota", 429, 0, nil)))
	assert.Equal(t, Ready, m.State())

	assert.True(t, m.HandleError(ctx, errInvalidKey))
	assert.Equal(t, NoKey, m.State())
	_, ok, err := storage.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_Selector(t *testing.T) {
	ctx := context.Background()

	t.Run("selects", func(t *testing.T) {
		m := NewManager(NewSelectorStrategy(func(context.Context) (string, error) {
			return "picked", nil
		}))
		state, _ := m.Init(ctx)
		assert.Equal(t, NoKey, state)

		require.NoError(t, m.Select(ctx))
		assert.Equal(t, Ready, m.State())
	})

	t.Run("host error", func(t *testing.T) {
		hostErr := errors.New("dialog dismissed")
		m := NewManager(NewSelectorStrategy(func(context.Context) (string, error) {
			return "", hostErr
		}))
		assert.ErrorIs(t, m.Select(ctx), hostErr)
		assert.Equal(t, NoKey, m.State())
	})

	t.Run("unsupported strategy", func(t *testing.T) {
		m := NewManager(NewSessionStrategy())
		assert.ErrorIs(t, m.Select(ctx), ErrUnsupported)
	})
}

func TestManager_Validator(t *testing.T) {
	ctx := context.Background()
	var seen []State
	var m *Manager
	m = NewManager(NewSessionStrategy(), WithValidator(func(_ context.Context, key string) error {
		seen = append(seen, m.state)
		if key == "bad" {
			return errInvalidKey
		}
		return nil
	}))

	assert.Error(t, m.Submit(ctx, "bad"))
	assert.Equal(t, NoKey, m.State())

	require.NoError(t, m.Submit(ctx, "good"))
	assert.Equal(t, Ready, m.State())
	assert.Equal(t, []State{KeyEntered, KeyEntered}, seen)
}

func TestManager_Proxy(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&ProxyStrategy{})
	state, err := m.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, Ready, state)

	assert.False(t, m.HandleError(ctx, errInvalidKey))
	assert.Equal(t, Ready, m.State())
}
