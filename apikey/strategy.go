package apikey

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/spetersoncode/promptcraft/store"
)

// StorageKey is the storage key a persisted API key lives under.
const StorageKey = "promptcraft-api-key"

// ErrUnsupported is returned when a strategy cannot accept a user-entered key.
var ErrUnsupported = errors.New("apikey: operation not supported by this strategy")

// Strategy is one way of obtaining the service API key.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Load returns a previously provided key, or "" if there is none.
	Load(ctx context.Context) (string, error)

	// Save stores a key the user entered.
	Save(ctx context.Context, key string) error

	// Clear forgets the key.
	Clear(ctx context.Context) error
}

// EnvStrategy reads the key from an environment variable once, when the
// strategy is created. Users cannot enter a key.
type EnvStrategy struct {
	mu  sync.Mutex
	Var string
	key string
}

// NewEnvStrategy reads the named variable now.
func NewEnvStrategy(name string) *EnvStrategy {
	return &EnvStrategy{Var: name, key: strings.TrimSpace(os.Getenv(name))}
}

func (s *EnvStrategy) Name() string { return "env" }

func (s *EnvStrategy) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, nil
}

func (s *EnvStrategy) Save(context.Context, string) error { return ErrUnsupported }

// Clear drops the key for the rest of the process; the variable is not
// read again.
func (s *EnvStrategy) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	return nil
}

// SessionStrategy holds a user-entered key in memory for the process lifetime.
type SessionStrategy struct {
	mu  sync.Mutex
	key string
}

// NewSessionStrategy creates an empty session strategy.
func NewSessionStrategy() *SessionStrategy {
	return &SessionStrategy{}
}

func (s *SessionStrategy) Name() string { return "session" }

func (s *SessionStrategy) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, nil
}

func (s *SessionStrategy) Save(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return nil
}

func (s *SessionStrategy) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	return nil
}

// PersistentStrategy stores a user-entered key in a store.Storage under
// StorageKey so that it survives restarts.
type PersistentStrategy struct {
	storage store.Storage
}

// NewPersistentStrategy creates a strategy backed by storage.
func NewPersistentStrategy(storage store.Storage) *PersistentStrategy {
	return &PersistentStrategy{storage: storage}
}

func (s *PersistentStrategy) Name() string { return "persistent" }

func (s *PersistentStrategy) Load(ctx context.Context) (string, error) {
	key, _, err := store.GetJSON[string](ctx, s.storage, StorageKey)
	return key, err
}

func (s *PersistentStrategy) Save(ctx context.Context, key string) error {
	return store.SetJSON(ctx, s.storage, StorageKey, key)
}

func (s *PersistentStrategy) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, StorageKey)
}

// SelectFunc asks the host environment to pick a key.
type SelectFunc func(ctx context.Context) (string, error)

// SelectorStrategy delegates key choice to the host. The selected key is
// remembered until cleared.
type SelectorStrategy struct {
	mu        sync.Mutex
	selectKey SelectFunc
	key       string
}

// NewSelectorStrategy creates a strategy around a host selection function.
func NewSelectorStrategy(fn SelectFunc) *SelectorStrategy {
	return &SelectorStrategy{selectKey: fn}
}

func (s *SelectorStrategy) Name() string { return "selector" }

func (s *SelectorStrategy) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, nil
}

func (s *SelectorStrategy) Save(context.Context, string) error { return ErrUnsupported }

func (s *SelectorStrategy) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	return nil
}

// Select runs the host selection function and remembers its result.
func (s *SelectorStrategy) Select(ctx context.Context) (string, error) {
	key, err := s.selectKey(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = strings.TrimSpace(key)
	return s.key, nil
}

// ProxyStrategy is used when a server proxy holds the service key. The
// optional client key authenticates this client to the proxy.
type ProxyStrategy struct {
	ClientKey string
}

func (s *ProxyStrategy) Name() string { return "proxy" }

func (s *ProxyStrategy) Load(context.Context) (string, error) { return s.ClientKey, nil }

func (s *ProxyStrategy) Save(context.Context, string) error { return ErrUnsupported }

func (s *ProxyStrategy) Clear(context.Context) error { return nil }
