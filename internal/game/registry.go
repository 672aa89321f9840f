package game

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages action registration and lookup by command.
type Registry struct {
	actions map[string]Action
	mu      sync.RWMutex
}

// NewRegistry creates a new action registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register adds an action to the registry.
// If an action with the same command already exists, it will be replaced.
func (r *Registry) Register(a Action) error {
	if a == nil {
		return fmt.Errorf("cannot register nil action")
	}
	if a.Command() == "" {
		return fmt.Errorf("action command cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.Command()] = a
	return nil
}

// Get retrieves an action by its command.
func (r *Registry) Get(command string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[command]
	return a, ok
}

// List returns all registered actions ordered by command.
func (r *Registry) List() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Command() < actions[j].Command()
	})
	return actions
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}
