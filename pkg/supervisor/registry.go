package supervisor

import (
	"fmt"
	"sync"

	"github.com/harun/agentq/pkg/agent"
)

// Registry tracks spawned agents by name in registration order
type Registry struct {
	agents   map[string]*agent.Agent
	order    []string
	capacity int
	mu       sync.RWMutex
}

// NewRegistry creates a registry. Capacity 0 means unbounded.
func NewRegistry(capacity int) *Registry {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry{
		agents:   make(map[string]*agent.Agent),
		capacity: capacity,
	}
}

// Register adds an agent and returns the names evicted to stay within capacity.
// The oldest registered agent is evicted first.
func (r *Registry) Register(a *agent.Agent) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.Name()]; exists {
		return nil, fmt.Errorf("agent already registered: %s", a.Name())
	}

	r.agents[a.Name()] = a
	r.order = append(r.order, a.Name())

	var evicted []string
	for r.capacity > 0 && len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.agents, oldest)
		evicted = append(evicted, oldest)
	}

	return evicted, nil
}

// Get retrieves an agent by name
func (r *Registry) Get(name string) (*agent.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.agents[name]
	if !exists {
		return nil, fmt.Errorf("agent not found: %s", name)
	}
	return a, nil
}

// Exists checks if an agent is registered
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.agents[name]
	return exists
}

// Names returns registered names, oldest first
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered agents
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.agents)
}

// Capacity returns the configured capacity
func (r *Registry) Capacity() int {
	return r.capacity
}
