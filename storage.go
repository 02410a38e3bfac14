package mockwindow

import (
	"sync"

	"github.com/dop251/goja"
)

type storageEntry struct {
	key   string
	value string
}

// Storage is an in-memory double for the Web Storage API backing localStorage
// and sessionStorage. Entries enumerate in insertion order, matching how
// browsers index key(n); updating an existing key keeps its position.
type Storage struct {
	vm *goja.Runtime

	mu      sync.RWMutex
	entries []storageEntry
	index   map[string]int

	obj *goja.Object
}

// newStorage creates an empty storage area
func newStorage(vm *goja.Runtime) *Storage {
	s := &Storage{
		vm:    vm,
		index: make(map[string]int),
	}
	s.obj = s.buildObject()
	return s
}

// GetItem returns the value stored under key
func (s *Storage) GetItem(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.entries[i].value, true
}

// SetItem stores value under key. New keys append to the enumeration order;
// existing keys keep their slot.
func (s *Storage) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[key]; ok {
		s.entries[i].value = value
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, storageEntry{key: key, value: value})
}

// RemoveItem deletes key if present; later entries shift down one slot
func (s *Storage) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[key]
	if !ok {
		return
	}
	delete(s.index, key)
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].key] = j
	}
}

// Clear removes every entry
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.index = make(map[string]int)
}

// Key returns the key at position i in insertion order
func (s *Storage) Key(i int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) {
		return "", false
	}
	return s.entries[i].key, true
}

// Len returns the number of stored entries
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns all entries as key/value pairs in insertion order
func (s *Storage) Snapshot() [][2]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pairs := make([][2]string, len(s.entries))
	for i, e := range s.entries {
		pairs[i] = [2]string{e.key, e.value}
	}
	return pairs
}

// buildObject creates the goja object exposing the storage area to scripts
func (s *Storage) buildObject() *goja.Object {
	vm := s.vm
	storage := vm.NewObject()

	storage.DefineAccessorProperty("length", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(s.Len())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	storage.Set("key", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Null()
		}
		key, ok := s.Key(int(call.Arguments[0].ToInteger()))
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(key)
	})

	storage.Set("getItem", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Null()
		}
		value, ok := s.GetItem(call.Arguments[0].String())
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(value)
	})

	storage.Set("setItem", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		s.SetItem(call.Arguments[0].String(), call.Arguments[1].String())
		return goja.Undefined()
	})

	storage.Set("removeItem", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		s.RemoveItem(call.Arguments[0].String())
		return goja.Undefined()
	})

	storage.Set("clear", func(call goja.FunctionCall) goja.Value {
		s.Clear()
		return goja.Undefined()
	})

	return storage
}

// Object returns the goja object installed as localStorage or sessionStorage
func (s *Storage) Object() *goja.Object {
	return s.obj
}
