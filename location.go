package mockwindow

import (
	"net/url"

	"github.com/dop251/goja"
)

// locationFields is the fixed set of navigation properties the mock exposes
var locationFields = []string{
	"href",
	"protocol",
	"host",
	"hostname",
	"port",
	"pathname",
	"search",
	"hash",
	"origin",
}

// Location is a record-and-read-back double for window.location. Every field
// is a plain string slot: writes are captured, reads return the last write or
// the baseline, and nothing ever navigates. assign, replace and reload are
// no-ops that scripts can overwrite with their own functions.
type Location struct {
	vm    *goja.Runtime
	store *PropertyStore
	obj   *goja.Object
}

// newLocation creates a location double over the real location object (which
// may be nil) and optionally seeds its baseline from seedURL
func newLocation(vm *goja.Runtime, real *goja.Object, seedURL *url.URL) *Location {
	l := &Location{
		vm:    vm,
		store: newPropertyStore(real, true),
	}
	if seedURL != nil {
		l.seedFromURL(seedURL)
	}
	l.obj = l.buildObject()
	return l
}

// seedFromURL plants baseline values for all navigation fields, formatted the
// way browsers format them: protocol keeps its trailing colon, search and
// hash keep their leading markers, pathname defaults to "/"
func (l *Location) seedFromURL(u *url.URL) {
	seed := func(field, value string) {
		l.store.Seed(field, l.vm.ToValue(value))
	}

	seed("href", u.String())

	scheme := u.Scheme
	if scheme == "" {
		seed("protocol", "about:")
	} else {
		seed("protocol", scheme+":")
	}

	seed("host", u.Host)
	seed("hostname", u.Hostname())
	seed("port", u.Port())

	if u.Path == "" {
		seed("pathname", "/")
	} else {
		seed("pathname", u.Path)
	}

	if u.RawQuery == "" {
		seed("search", "")
	} else {
		seed("search", "?"+u.RawQuery)
	}

	if u.Fragment == "" {
		seed("hash", "")
	} else {
		seed("hash", "#"+u.Fragment)
	}

	if scheme == "about" || scheme == "javascript" || u.Host == "" {
		seed("origin", "null")
	} else {
		seed("origin", scheme+"://"+u.Host)
	}
}

// buildObject creates the goja object exposed as window.location
func (l *Location) buildObject() *goja.Object {
	vm := l.vm
	location := vm.NewObject()

	for _, field := range locationFields {
		field := field
		getter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return l.getValue(field)
		})
		setter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				return goja.Undefined()
			}
			l.store.Set(field, vm.ToValue(call.Arguments[0].String()))
			return goja.Undefined()
		})
		location.DefineAccessorProperty(field, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}

	// Navigation methods are plain data properties so tests can swap in
	// their own spies; the defaults record nothing and go nowhere
	noop := func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	}
	location.Set("assign", noop)
	location.Set("replace", noop)
	location.Set("reload", noop)

	location.Set("toString", func(call goja.FunctionCall) goja.Value {
		return l.getValue("href")
	})
	location.Set("valueOf", func(call goja.FunctionCall) goja.Value {
		return location
	})

	return location
}

// getValue resolves a field for the JS accessors, falling back to the empty
// string so every field stays string-typed
func (l *Location) getValue(field string) goja.Value {
	if v := l.store.Get(field); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		return v
	}
	return l.vm.ToValue("")
}

// Get returns the current value of a navigation field
func (l *Location) Get(field string) string {
	v := l.store.Get(field)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// Set records a value for a navigation field without navigating. The value is
// stored verbatim; derived fields are not recomputed.
func (l *Location) Set(field, value string) {
	l.store.Set(field, l.vm.ToValue(value))
}

// Href returns the current href value
func (l *Location) Href() string {
	return l.Get("href")
}

// SetHref records a new href without triggering navigation
func (l *Location) SetHref(href string) {
	l.Set("href", href)
}

// Overridden reports whether a field was written since the last reset
func (l *Location) Overridden(field string) bool {
	return l.store.Overridden(field)
}

// Values returns a snapshot of all navigation fields
func (l *Location) Values() map[string]string {
	values := make(map[string]string, len(locationFields))
	for _, field := range locationFields {
		values[field] = l.Get(field)
	}
	return values
}

// Object returns the goja object installed as window.location
func (l *Location) Object() *goja.Object {
	return l.obj
}
