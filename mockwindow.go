// Package mockwindow provides a controllable stand-in for a browser-style
// window global inside a goja runtime. The mock forwards ordinary property
// access to a real backing object while intercepting the surfaces that
// navigate, persist or block (location, localStorage, sessionStorage and the
// dialog functions) with stateful doubles that record instead of acting.
package mockwindow

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Window members the mock owns outright
const (
	keyLocation       = "location"
	keyLocalStorage   = "localStorage"
	keySessionStorage = "sessionStorage"
)

// criticalKeys lists every intercepted window member; all other keys pass
// through to the real object
var criticalKeys = []string{
	keyLocation,
	keyLocalStorage,
	keySessionStorage,
	dialogAlert,
	dialogConfirm,
	dialogPrompt,
}

// isCriticalKey reports whether key names an intercepted surface
func isCriticalKey(key string) bool {
	switch key {
	case keyLocation, keyLocalStorage, keySessionStorage,
		dialogAlert, dialogConfirm, dialogPrompt:
		return true
	}
	return false
}

// Window wraps a real window object with interception for the critical
// surfaces while passing every other property through unchanged. It owns the
// single live mock state; Reset swaps in a fresh one.
type Window struct {
	vm           *goja.Runtime
	real         *goja.Object
	realLocation *goja.Object
	logger       *zap.Logger
	seedRaw      string
	seedURL      *url.URL

	mu    sync.RWMutex
	state *mockState

	handler *windowProxy
	proxy   *goja.Object

	installed bool
	saved     map[string]goja.Value
}

// Option configures a Window
type Option func(*Window)

// WithRealWindow sets the real object the proxy delegates to. Defaults to
// the runtime's global object.
func WithRealWindow(obj *goja.Object) Option {
	return func(w *Window) {
		w.real = obj
	}
}

// WithLogger sets the logger used for interception events. Defaults to a
// no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Window) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLocationURL seeds the mock location from urlStr on construction and
// after every Reset
func WithLocationURL(urlStr string) Option {
	return func(w *Window) {
		w.seedRaw = urlStr
	}
}

// New builds a mock window over vm's global object or the WithRealWindow
// target. Nothing is bound into the runtime until Install.
func New(vm *goja.Runtime, opts ...Option) (*Window, error) {
	if vm == nil {
		return nil, fmt.Errorf("a goja runtime is required")
	}

	w := &Window{
		vm:     vm,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("mockwindow")

	if w.real == nil {
		w.real = vm.GlobalObject()
	}
	if w.seedRaw != "" {
		u, err := url.Parse(w.seedRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid location URL %q: %w", w.seedRaw, err)
		}
		w.seedURL = u
	}

	// Resolve the real location now, before Install can bind accessors over
	// it; Reset keeps using this pre-install object as the fallback source
	if v := w.real.Get(keyLocation); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		w.realLocation = v.ToObject(vm)
	}

	w.state = newMockState(vm, w.real, w.realLocation, w.seedURL, w.logger)
	w.handler = &windowProxy{w: w}
	w.proxy = vm.NewDynamicObject(w.handler)
	return w, nil
}

// currentState returns the live state under the read lock
func (w *Window) currentState() *mockState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// VM returns the underlying goja runtime
func (w *Window) VM() *goja.Runtime {
	return w.vm
}

// Object returns the proxy object itself, the single value to hand to code
// expecting a window
func (w *Window) Object() *goja.Object {
	return w.proxy
}

// Location returns the current location double
func (w *Window) Location() *Location {
	return w.currentState().location
}

// LocalStorage returns the current localStorage double
func (w *Window) LocalStorage() *Storage {
	return w.currentState().local
}

// SessionStorage returns the current sessionStorage double
func (w *Window) SessionStorage() *Storage {
	return w.currentState().session
}

// Dialogs returns the current dialog bindings
func (w *Window) Dialogs() *Dialogs {
	return w.currentState().dialogs
}

// Overridden reports whether a top-level window property carries a recorded
// override
func (w *Window) Overridden(key string) bool {
	return w.currentState().overrides.Overridden(key)
}

// OverriddenKeys returns the overridden top-level properties in first-write
// order
func (w *Window) OverriddenKeys() []string {
	return w.currentState().overrides.Keys()
}

// Override records value at a dotted property path without touching the real
// object. Intermediate segments materialize shadow objects that keep passing
// unrelated properties through, so Override("navigator.onLine", false) hides
// one field of the real navigator and nothing else.
func (w *Window) Override(path string, value interface{}) {
	if path == "" {
		return
	}
	segs := strings.Split(path, ".")
	state := w.currentState()

	if len(segs) == 1 {
		w.handler.Set(path, w.vm.ToValue(value))
		return
	}
	if isCriticalKey(segs[0]) {
		if segs[0] == keyLocation && len(segs) == 2 {
			state.location.Set(segs[1], w.vm.ToValue(value).String())
			return
		}
		w.logger.Warn("cannot override inside a reserved surface", zap.String("path", path))
		return
	}

	store := state.overrides
	source := w.real
	prefix := ""
	for _, seg := range segs[:len(segs)-1] {
		if prefix == "" {
			prefix = seg
		} else {
			prefix += "." + seg
		}
		sh, ok := state.shadows[prefix]
		if ok && store.Overridden(seg) {
			// A script replaced this segment wholesale, so the shadow no
			// longer fronts what reads resolve; rebuild over the replacement
			if o, isObj := store.Get(seg).(*goja.Object); !isObj || o != sh.obj {
				ok = false
			}
		}
		if !ok {
			sh = newShadow(w.vm, nestedSource(store, source, seg))
			state.shadows[prefix] = sh
			store.Set(seg, sh.obj)
		} else if !store.Overridden(seg) {
			// ClearOverride or a script delete severed the link; restore it
			// so the shadow is reachable again
			store.Set(seg, sh.obj)
		}
		store = sh.store
		source = sh.source
	}
	store.Set(segs[len(segs)-1], w.vm.ToValue(value))
	w.logger.Debug("recorded override", zap.String("path", path))
}

// nestedSource picks the object a new shadow wraps: a recorded override if
// one exists at seg, otherwise the child of the current source
func nestedSource(store *PropertyStore, source *goja.Object, seg string) *goja.Object {
	if store.Overridden(seg) {
		if o, ok := store.Get(seg).(*goja.Object); ok {
			return o
		}
		return nil
	}
	if source == nil {
		return nil
	}
	v := source.Get(seg)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	o, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	return o
}

// ClearOverride removes the override at a dotted path; reads fall back to the
// real object again. Shadow objects built for intermediate segments stay in
// place until the next Reset.
func (w *Window) ClearOverride(path string) {
	if path == "" {
		return
	}
	segs := strings.Split(path, ".")
	state := w.currentState()

	if len(segs) == 1 {
		state.overrides.Delete(path)
		return
	}
	prefix := strings.Join(segs[:len(segs)-1], ".")
	if sh, ok := state.shadows[prefix]; ok {
		sh.store.Delete(segs[len(segs)-1])
	}
}

// Property reads a value through the proxy at a dotted path, resolving
// overrides, shadows and real pass-through exactly as a script would
func (w *Window) Property(path string) goja.Value {
	if path == "" {
		return goja.Undefined()
	}
	segs := strings.Split(path, ".")
	v := w.proxy.Get(segs[0])
	for _, seg := range segs[1:] {
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			return goja.Undefined()
		}
		obj := v.ToObject(w.vm)
		if obj == nil {
			return goja.Undefined()
		}
		v = obj.Get(seg)
	}
	if v == nil {
		return goja.Undefined()
	}
	return v
}

// Install binds the mock into the runtime: window and self name the proxy,
// and each critical surface gets a bare-global accessor so unqualified
// references like location.href or alert(...) hit the mock too. The previous
// bindings are remembered for Uninstall.
func (w *Window) Install() error {
	if w.installed {
		return nil
	}
	global := w.vm.GlobalObject()

	w.saved = make(map[string]goja.Value)
	for _, name := range append([]string{"window", "self"}, criticalKeys...) {
		w.saved[name] = global.Get(name)
	}

	if err := global.Set("window", w.proxy); err != nil {
		return fmt.Errorf("failed to bind window: %w", err)
	}
	if err := global.Set("self", w.proxy); err != nil {
		return fmt.Errorf("failed to bind self: %w", err)
	}

	for _, name := range criticalKeys {
		name := name
		getter := w.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if v := w.handler.Get(name); v != nil {
				return v
			}
			return goja.Undefined()
		})
		setter := w.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				return goja.Undefined()
			}
			w.handler.Set(name, call.Arguments[0])
			return goja.Undefined()
		})
		if err := global.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
			return fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	w.installed = true
	w.logger.Debug("mock window installed")
	return nil
}

// Uninstall restores the global bindings Install replaced. Names that did
// not exist before Install are removed again rather than left behind as
// undefined.
func (w *Window) Uninstall() error {
	if !w.installed {
		return nil
	}
	global := w.vm.GlobalObject()

	for _, name := range []string{"window", "self"} {
		prev := w.saved[name]
		if prev == nil {
			if err := global.Delete(name); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
			continue
		}
		if err := global.Set(name, prev); err != nil {
			return fmt.Errorf("failed to restore %s: %w", name, err)
		}
	}
	for _, name := range criticalKeys {
		prev := w.saved[name]
		if prev == nil {
			if err := global.Delete(name); err != nil {
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
			continue
		}
		if err := global.DefineDataProperty(name, prev, goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
			return fmt.Errorf("failed to restore %s: %w", name, err)
		}
	}

	w.installed = false
	w.saved = nil
	w.logger.Debug("mock window uninstalled")
	return nil
}

// windowProxy implements goja's dynamic object protocol so every property
// operation on the mock window funnels through the critical-key dispatch
type windowProxy struct {
	w *Window
}

func (p *windowProxy) Get(key string) goja.Value {
	w := p.w
	state := w.currentState()
	switch key {
	case keyLocation:
		return state.location.Object()
	case keyLocalStorage:
		return state.local.Object()
	case keySessionStorage:
		return state.session.Object()
	case dialogAlert, dialogConfirm, dialogPrompt:
		return state.dialogs.Binding(key)
	case "window", "self":
		// window.window === window unless a test overrode the alias
		if !state.overrides.Overridden(key) {
			return w.proxy
		}
	}
	return state.overrides.Get(key)
}

func (p *windowProxy) Set(key string, val goja.Value) bool {
	w := p.w
	state := w.currentState()
	switch key {
	case keyLocation, keyLocalStorage, keySessionStorage:
		// The mock owns these objects; whole-object assignment is swallowed
		// rather than thrown so scripts doing window.location = url keep
		// running
		w.logger.Debug("ignored write to reserved property", zap.String("key", key))
		return true
	case dialogAlert, dialogConfirm, dialogPrompt:
		state.dialogs.SetBinding(key, val)
		return true
	}
	state.overrides.Set(key, val)
	return true
}

func (p *windowProxy) Has(key string) bool {
	if isCriticalKey(key) || key == "window" || key == "self" {
		return true
	}
	return p.w.currentState().overrides.Has(key)
}

func (p *windowProxy) Delete(key string) bool {
	if isCriticalKey(key) {
		// Critical surfaces survive delete; report success so strict-mode
		// scripts never trap
		return true
	}
	p.w.currentState().overrides.Delete(key)
	return true
}

func (p *windowProxy) Keys() []string {
	w := p.w
	state := w.currentState()
	seen := make(map[string]bool)
	var keys []string
	if w.real != nil {
		for _, k := range w.real.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	for _, k := range state.overrides.Keys() {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, k := range criticalKeys {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
