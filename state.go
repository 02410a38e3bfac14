package mockwindow

import (
	"net/url"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// mockState is the root of everything the mock records: generic property
// overrides, the location double, both storage areas, the dialog bindings and
// any shadow objects built for nested overrides. Reset swaps the whole value
// for a fresh one instead of mutating it, so references a test grabbed before
// the reset cannot leak recorded state into the next test.
type mockState struct {
	overrides *PropertyStore
	location  *Location
	local     *Storage
	session   *Storage
	dialogs   *Dialogs
	shadows   map[string]*shadow
}

// newMockState builds a pristine state over the real window object and its
// pre-install location, either of which may be nil. The location source is
// resolved once at construction time by the caller; resolving it here after
// Install would read back the mock's own accessor.
func newMockState(vm *goja.Runtime, real, realLocation *goja.Object, seedURL *url.URL, logger *zap.Logger) *mockState {
	return &mockState{
		overrides: newPropertyStore(real, false),
		location:  newLocation(vm, realLocation, seedURL),
		local:     newStorage(vm),
		session:   newStorage(vm),
		dialogs:   newDialogs(vm, logger),
		shadows:   make(map[string]*shadow),
	}
}

// shadow is a pass-through wrapper for a nested real object (navigator,
// screen and so on), materialized the first time a test overrides one of its
// properties. Unshadowed properties keep reading the real object live.
type shadow struct {
	store  *PropertyStore
	source *goja.Object
	obj    *goja.Object
}

// newShadow wraps source, which may be nil when the real window has no such
// nested object
func newShadow(vm *goja.Runtime, source *goja.Object) *shadow {
	sh := &shadow{
		store:  newPropertyStore(source, false),
		source: source,
	}
	sh.obj = vm.NewDynamicObject(&shadowProxy{sh: sh})
	return sh
}

// shadowProxy adapts a shadow to goja's dynamic object protocol
type shadowProxy struct {
	sh *shadow
}

func (p *shadowProxy) Get(key string) goja.Value {
	return p.sh.store.Get(key)
}

func (p *shadowProxy) Set(key string, val goja.Value) bool {
	p.sh.store.Set(key, val)
	return true
}

func (p *shadowProxy) Has(key string) bool {
	return p.sh.store.Has(key)
}

func (p *shadowProxy) Delete(key string) bool {
	p.sh.store.Delete(key)
	return true
}

func (p *shadowProxy) Keys() []string {
	seen := make(map[string]bool)
	var keys []string
	if p.sh.source != nil {
		for _, k := range p.sh.source.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	for _, k := range p.sh.store.Keys() {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
