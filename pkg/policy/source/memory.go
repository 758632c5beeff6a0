package source

import (
	"context"
	"sync"

	"parapet-hq/parapet/pkg/policy/engine"
)

// Source produces the full collection of endpoint policy sets from a
// backing store. Load is called at startup and again on every reload.
type Source interface {
	Load(ctx context.Context) ([]*engine.EndpointPolicySet, error)
}

// MemorySource serves policy sets registered in process. It backs tests
// and embedders that construct policies programmatically.
type MemorySource struct {
	mu   sync.RWMutex
	sets map[string]*engine.EndpointPolicySet
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{sets: make(map[string]*engine.EndpointPolicySet)}
}

// Register validates and stores a policy set, replacing any previous set
// for the same endpoint.
func (s *MemorySource) Register(set *engine.EndpointPolicySet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sets[set.Endpoint] = set
	s.mu.Unlock()
	return nil
}

// Remove drops the set for an endpoint if present.
func (s *MemorySource) Remove(endpoint string) {
	s.mu.Lock()
	delete(s.sets, endpoint)
	s.mu.Unlock()
}

// Load returns the registered sets.
func (s *MemorySource) Load(_ context.Context) ([]*engine.EndpointPolicySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sets := make([]*engine.EndpointPolicySet, 0, len(s.sets))
	for _, set := range s.sets {
		sets = append(sets, set)
	}
	return sets, nil
}
