package mockwindow

import (
	"sync"

	"github.com/dop251/goja"
)

// PropertyStore layers recorded writes over a real source object. Writes land
// only in the override map and never touch the source; reads prefer overrides
// and fall back to the source. In snapshot mode the first read of each source
// property is captured and replayed for the lifetime of the store, so later
// mutations of the real object cannot bleed into recorded state.
type PropertyStore struct {
	source   *goja.Object
	snapshot bool

	mu        sync.RWMutex
	overrides map[string]goja.Value
	order     []string
	captured  map[string]goja.Value
}

// newPropertyStore creates a store over source, which may be nil. With
// snapshot set, source reads are frozen on first access.
func newPropertyStore(source *goja.Object, snapshot bool) *PropertyStore {
	return &PropertyStore{
		source:    source,
		snapshot:  snapshot,
		overrides: make(map[string]goja.Value),
		captured:  make(map[string]goja.Value),
	}
}

// Get returns the override for key if one was recorded, otherwise the source
// value. Returns nil when the key is absent everywhere.
func (s *PropertyStore) Get(key string) goja.Value {
	s.mu.RLock()
	if v, ok := s.overrides[key]; ok {
		s.mu.RUnlock()
		return v
	}
	if s.snapshot {
		if v, ok := s.captured[key]; ok {
			s.mu.RUnlock()
			return v
		}
	}
	source := s.source
	s.mu.RUnlock()

	if source == nil {
		return nil
	}
	v := source.Get(key)
	if v == nil {
		return nil
	}
	if s.snapshot {
		s.mu.Lock()
		// First capture wins if two readers race here
		if prev, ok := s.captured[key]; ok {
			v = prev
		} else {
			s.captured[key] = v
		}
		s.mu.Unlock()
	}
	return v
}

// Set records value as the override for key
func (s *PropertyStore) Set(key string, value goja.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[key]; !ok {
		s.order = append(s.order, key)
	}
	s.overrides[key] = value
}

// Has reports whether key resolves to a value, overridden or real
func (s *PropertyStore) Has(key string) bool {
	s.mu.RLock()
	if _, ok := s.overrides[key]; ok {
		s.mu.RUnlock()
		return true
	}
	if s.snapshot {
		if _, ok := s.captured[key]; ok {
			s.mu.RUnlock()
			return true
		}
	}
	source := s.source
	s.mu.RUnlock()

	return source != nil && source.Get(key) != nil
}

// Delete removes the override for key so reads fall back to the source again.
// Snapshot captures are kept; they are the store's baseline, not overrides.
func (s *PropertyStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[key]; !ok {
		return
	}
	delete(s.overrides, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Overridden reports whether key currently carries a recorded value
func (s *PropertyStore) Overridden(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overrides[key]
	return ok
}

// Keys returns the overridden keys in the order they were first written
func (s *PropertyStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Seed plants value as the captured baseline for key without marking it
// overridden. Only meaningful in snapshot mode.
func (s *PropertyStore) Seed(key string, value goja.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured[key] = value
}
