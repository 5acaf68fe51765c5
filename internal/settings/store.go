// Package settings reads and edits the hook list held in the host's global
// settings file.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/leefowlercu/event-hooks/pkg/types"
)

const hooksKey = "eventHooks"

// DefaultLockTimeout bounds how long a mutation waits for the settings lock
const DefaultLockTimeout = 10 * time.Second

// ErrNotFound is returned when no hook has the requested ID
var ErrNotFound = errors.New("hook not found")

// Store is a file-backed settings collaborator. Reads always go to disk so a
// change is visible to the very next dispatch. Top-level keys other than
// eventHooks are kept as they are when the file is rewritten.
type Store struct {
	path        string
	lockTimeout time.Duration
	mu          sync.Mutex
}

// NewStore creates a store over the settings file at path
func NewStore(path string) *Store {
	return &Store{path: path, lockTimeout: DefaultLockTimeout}
}

// Path returns the settings file path
func (s *Store) Path() string {
	return s.path
}

// GlobalSettings returns the current settings. A missing file is empty settings.
func (s *Store) GlobalSettings(ctx context.Context) (types.Settings, error) {
	if err := ctx.Err(); err != nil {
		return types.Settings{}, err
	}

	_, hooks, err := s.load()
	if err != nil {
		return types.Settings{}, err
	}

	return types.Settings{EventHooks: hooks}, nil
}

// List returns every configured hook in stored order
func (s *Store) List(ctx context.Context) ([]types.Hook, error) {
	settings, err := s.GlobalSettings(ctx)
	if err != nil {
		return nil, err
	}
	return settings.Hooks(), nil
}

// Get returns the hook with the given ID
func (s *Store) Get(ctx context.Context, id string) (types.Hook, error) {
	hooks, err := s.List(ctx)
	if err != nil {
		return types.Hook{}, err
	}

	for _, hook := range hooks {
		if hook.ID == id {
			return hook, nil
		}
	}

	return types.Hook{}, fmt.Errorf("failed to get hook %q; %w", id, ErrNotFound)
}

// Add appends a hook, assigning a new ID when it has none
func (s *Store) Add(ctx context.Context, hook types.Hook) (types.Hook, error) {
	if !hook.Trigger.IsValid() {
		return types.Hook{}, fmt.Errorf("failed to add hook; invalid trigger %q", hook.Trigger)
	}
	if hook.Action == nil {
		return types.Hook{}, errors.New("failed to add hook; action is required")
	}
	if hook.ID == "" {
		hook.ID = uuid.New().String()
	}

	err := s.update(ctx, func(hooks []types.Hook) ([]types.Hook, error) {
		for _, existing := range hooks {
			if existing.ID == hook.ID {
				return nil, fmt.Errorf("failed to add hook; id %q already exists", hook.ID)
			}
		}
		return append(hooks, hook), nil
	})
	if err != nil {
		return types.Hook{}, err
	}

	return hook, nil
}

// Remove deletes the hook with the given ID
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.update(ctx, func(hooks []types.Hook) ([]types.Hook, error) {
		for i, hook := range hooks {
			if hook.ID == id {
				return append(hooks[:i], hooks[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("failed to remove hook %q; %w", id, ErrNotFound)
	})
}

// SetEnabled toggles the hook with the given ID and returns the updated hook
func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) (types.Hook, error) {
	var updated types.Hook
	err := s.update(ctx, func(hooks []types.Hook) ([]types.Hook, error) {
		for i := range hooks {
			if hooks[i].ID == id {
				hooks[i].Enabled = enabled
				updated = hooks[i]
				return hooks, nil
			}
		}
		return nil, fmt.Errorf("failed to update hook %q; %w", id, ErrNotFound)
	})
	if err != nil {
		return types.Hook{}, err
	}
	return updated, nil
}

// load returns the raw top-level document and the decoded hook list
func (s *Store) load() (map[string]json.RawMessage, []types.Hook, error) {
	doc := map[string]json.RawMessage{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, []types.Hook{}, nil
		}
		return nil, nil, fmt.Errorf("failed to read settings file; %w", err)
	}

	if len(data) == 0 {
		return doc, []types.Hook{}, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse settings file; %w", err)
	}

	hooks := []types.Hook{}
	if raw, ok := doc[hooksKey]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &hooks); err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s; %w", hooksKey, err)
		}
	}

	return doc, hooks, nil
}

// update applies fn to the hook list under both the in-process mutex and the
// cross-process lock file, then writes the result atomically
func (s *Store) update(ctx context.Context, fn func([]types.Hook) ([]types.Hook, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(ctx, func() error {
		doc, hooks, err := s.load()
		if err != nil {
			return err
		}

		hooks, err = fn(hooks)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(hooks)
		if err != nil {
			return fmt.Errorf("failed to serialize hooks; %w", err)
		}
		doc[hooksKey] = raw

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize settings; %w", err)
		}

		return s.save(append(data, '\n'))
	})
}

func (s *Store) withFileLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory; %w", err)
	}

	fileLock := flock.New(s.path + ".lock")

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire settings lock; %w", err)
	}
	if !locked {
		return errors.New("failed to acquire settings lock; timed out")
	}
	defer func() { _ = fileLock.Unlock() }()

	return fn()
}

func (s *Store) save(data []byte) error {
	dir := filepath.Dir(s.path)

	file, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create settings temp file; %w", err)
	}
	name := file.Name()
	defer func() {
		_ = os.Remove(name)
	}()

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write settings; %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync settings; %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close settings; %w", err)
	}

	if err := os.Rename(name, s.path); err != nil {
		return fmt.Errorf("failed to save settings; %w", err)
	}

	return nil
}
