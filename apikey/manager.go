// Package apikey gates access to the generative-AI clients behind an
// explicit key state machine.
//
//	NoKey ──Submit──▶ KeyEntered ──┐
//	  │                            ├──▶ Ready
//	  └────Select───▶ KeySelected ─┘
//
// An invalid-key error from any client sends the manager back to NoKey and
// clears whatever the strategy persisted.
package apikey

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spetersoncode/promptcraft"
)

// State is the provisioning state of the key.
type State int

const (
	NoKey State = iota
	KeyEntered
	KeySelected
	Ready
)

func (s State) String() string {
	switch s {
	case NoKey:
		return "no_key"
	case KeyEntered:
		return "key_entered"
	case KeySelected:
		return "key_selected"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// ErrNoKey is returned when a key is requested before the manager is Ready.
var ErrNoKey = errors.New("apikey: no API key available")

// ValidateFunc checks a candidate key before the manager becomes Ready.
type ValidateFunc func(ctx context.Context, key string) error

// Manager owns the key and its state.
type Manager struct {
	mu       sync.Mutex
	strategy Strategy
	state    State
	key      string
	validate ValidateFunc
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithValidator checks keys before they are accepted.
func WithValidator(fn ValidateFunc) Option {
	return func(m *Manager) {
		m.validate = fn
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager in the NoKey state.
func NewManager(strategy Strategy, opts ...Option) *Manager {
	m := &Manager{
		strategy: strategy,
		state:    NoKey,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init loads a previously provided key. A proxy strategy is always Ready.
func (m *Manager) Init(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.strategy.Load(ctx)
	if err != nil {
		return m.state, err
	}
	if _, ok := m.strategy.(*ProxyStrategy); ok || key != "" {
		m.key = key
		m.setState(Ready)
	}
	return m.state, nil
}

// Submit accepts a user-entered key.
func (m *Manager) Submit(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return promptcraft.NewError(promptcraft.KindInvalidKey, "the API key is empty", 0, promptcraft.ErrEmptyInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.strategy.Save(ctx, key); err != nil {
		return err
	}
	m.setState(KeyEntered)
	return m.accept(ctx, key)
}

// Select asks the host to pick a key. Only a SelectorStrategy supports it.
func (m *Manager) Select(ctx context.Context) error {
	sel, ok := m.strategy.(*SelectorStrategy)
	if !ok {
		return ErrUnsupported
	}
	key, err := sel.Select(ctx)
	if err != nil {
		return err
	}
	if key == "" {
		return ErrNoKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setState(KeySelected)
	return m.accept(ctx, key)
}

// accept validates key and moves to Ready, or back to NoKey on failure.
func (m *Manager) accept(ctx context.Context, key string) error {
	if m.validate != nil {
		if err := m.validate(ctx, key); err != nil {
			if promptcraft.IsInvalidKey(err) {
				m.reset(ctx)
			}
			return err
		}
	}
	m.key = key
	m.setState(Ready)
	return nil
}

// Key returns the key when the manager is Ready.
func (m *Manager) Key() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Ready {
		return "", ErrNoKey
	}
	return m.key, nil
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Strategy returns the strategy the manager was created with.
func (m *Manager) Strategy() Strategy {
	return m.strategy
}

// HandleError inspects a client error. An invalid key resets the manager to
// NoKey and clears the stored key; it reports whether that happened.
func (m *Manager) HandleError(ctx context.Context, err error) bool {
	if !promptcraft.IsInvalidKey(err) {
		return false
	}
	if _, ok := m.strategy.(*ProxyStrategy); ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset(ctx)
	return true
}

// Reset forgets the key.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset(ctx)
}

func (m *Manager) reset(ctx context.Context) {
	if err := m.strategy.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear stored API key", "strategy", m.strategy.Name(), "error", err)
	}
	m.key = ""
	m.setState(NoKey)
}

func (m *Manager) setState(s State) {
	if m.state != s {
		m.logger.Debug("api key state", "strategy", m.strategy.Name(), "from", m.state, "to", s)
	}
	m.state = s
}
