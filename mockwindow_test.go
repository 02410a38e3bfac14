package mockwindow

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
)

// newTestWindow builds an installed mock over a fresh runtime
func newTestWindow(t *testing.T, opts ...Option) (*Window, *goja.Runtime) {
	t.Helper()
	vm := goja.New()
	w, err := New(vm, opts...)
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}
	return w, vm
}

func TestNewRequiresRuntime(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("Expected an error for a nil runtime")
	}
}

func TestNewRejectsBadLocationURL(t *testing.T) {
	vm := goja.New()
	if _, err := New(vm, WithLocationURL("://no-scheme")); err == nil {
		t.Error("Expected an error for an unparseable URL")
	}
}

func TestWindowPassThrough(t *testing.T) {
	vm := goja.New()
	real := vm.NewObject()
	real.Set("innerWidth", 1280)
	real.Set("innerHeight", 720)

	w, err := New(vm, WithRealWindow(real))
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}

	t.Run("reads reach the real object", func(t *testing.T) {
		result, err := vm.RunString("window.innerWidth")
		if err != nil {
			t.Fatalf("Failed to read innerWidth: %v", err)
		}
		if result.ToInteger() != 1280 {
			t.Errorf("Expected 1280, got %d", result.ToInteger())
		}
	})

	t.Run("reads stay live after creation", func(t *testing.T) {
		real.Set("innerWidth", 1920)
		result, err := vm.RunString("window.innerWidth")
		if err != nil {
			t.Fatalf("Failed to read innerWidth: %v", err)
		}
		if result.ToInteger() != 1920 {
			t.Errorf("Expected 1920 after real change, got %d", result.ToInteger())
		}
	})

	t.Run("writes shadow the real object without touching it", func(t *testing.T) {
		if _, err := vm.RunString("window.innerHeight = 99"); err != nil {
			t.Fatalf("Failed to set innerHeight: %v", err)
		}
		result, err := vm.RunString("window.innerHeight")
		if err != nil {
			t.Fatalf("Failed to read innerHeight: %v", err)
		}
		if result.ToInteger() != 99 {
			t.Errorf("Expected 99, got %d", result.ToInteger())
		}
		if real.Get("innerHeight").ToInteger() != 720 {
			t.Errorf("Expected real innerHeight to stay 720, got %d", real.Get("innerHeight").ToInteger())
		}
		if !w.Overridden("innerHeight") {
			t.Error("Expected innerHeight to be recorded as overridden")
		}
	})

	t.Run("delete drops the shadow and restores pass-through", func(t *testing.T) {
		if _, err := vm.RunString("delete window.innerHeight"); err != nil {
			t.Fatalf("Failed to delete innerHeight: %v", err)
		}
		result, err := vm.RunString("window.innerHeight")
		if err != nil {
			t.Fatalf("Failed to read innerHeight: %v", err)
		}
		if result.ToInteger() != 720 {
			t.Errorf("Expected 720 after delete, got %d", result.ToInteger())
		}
	})

	t.Run("unknown keys read as undefined", func(t *testing.T) {
		result, err := vm.RunString("window.noSuchThing")
		if err != nil {
			t.Fatalf("Failed to read missing key: %v", err)
		}
		if !goja.IsUndefined(result) {
			t.Errorf("Expected undefined, got %v", result)
		}
	})
}

func TestWindowMethodCallsThroughProxy(t *testing.T) {
	vm := goja.New()
	realVal, err := vm.RunString(`({ greeting: 'hi', greet: function() { return this.greeting } })`)
	if err != nil {
		t.Fatalf("Failed to build real object: %v", err)
	}

	w, err := New(vm, WithRealWindow(realVal.ToObject(vm)))
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}

	result, err := vm.RunString("window.greet()")
	if err != nil {
		t.Fatalf("Failed to call real method through the proxy: %v", err)
	}
	if result.String() != "hi" {
		t.Errorf("Expected 'hi' from this-bound lookup, got %q", result.String())
	}

	// this resolves through the proxy, so an override shows up in the method
	if _, err := vm.RunString("window.greeting = 'hello'"); err != nil {
		t.Fatalf("Failed to override greeting: %v", err)
	}
	result, err = vm.RunString("window.greet()")
	if err != nil {
		t.Fatalf("Failed second call: %v", err)
	}
	if result.String() != "hello" {
		t.Errorf("Expected the override through this, got %q", result.String())
	}
}

func TestWindowWritesReadOnlyRealProperties(t *testing.T) {
	vm := goja.New()
	real := vm.NewObject()
	if err := real.DefineDataProperty("version", vm.ToValue("1.0"), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		t.Fatalf("Failed to define read-only property: %v", err)
	}

	w, err := New(vm, WithRealWindow(real))
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}

	if _, err := vm.RunString("window.version = '2.0'"); err != nil {
		t.Fatalf("Expected the write to succeed on the mock: %v", err)
	}
	result, err := vm.RunString("window.version")
	if err != nil {
		t.Fatalf("Failed to read version: %v", err)
	}
	if result.String() != "2.0" {
		t.Errorf("Expected '2.0', got %q", result.String())
	}
	if real.Get("version").String() != "1.0" {
		t.Errorf("Expected the real property to stay '1.0', got %q", real.Get("version").String())
	}
}

func TestWindowWritesReadOnlyNestedProperties(t *testing.T) {
	vm := goja.New()
	real := vm.NewObject()
	navigator := vm.NewObject()
	if err := navigator.DefineDataProperty("userAgent", vm.ToValue("RealAgent/1.0"), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		t.Fatalf("Failed to define read-only property: %v", err)
	}
	real.Set("navigator", navigator)

	w, err := New(vm, WithRealWindow(real))
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}

	w.Override("navigator.userAgent", "Masked/1.0")
	result, err := vm.RunString("window.navigator.userAgent")
	if err != nil {
		t.Fatalf("Failed to read userAgent: %v", err)
	}
	if result.String() != "Masked/1.0" {
		t.Errorf("Expected the override, got %q", result.String())
	}

	// The wrapper captures script writes, so the read-only real field never
	// sees them
	if _, err := vm.RunString("window.navigator.userAgent = 'Scripted/2.0'"); err != nil {
		t.Fatalf("Expected the nested write to succeed on the mock: %v", err)
	}
	result, err = vm.RunString("window.navigator.userAgent")
	if err != nil {
		t.Fatalf("Failed to read userAgent: %v", err)
	}
	if result.String() != "Scripted/2.0" {
		t.Errorf("Expected the scripted value, got %q", result.String())
	}
	if navigator.Get("userAgent").String() != "RealAgent/1.0" {
		t.Errorf("Expected the real userAgent to stay 'RealAgent/1.0', got %q", navigator.Get("userAgent").String())
	}
}

func TestWindowCriticalInterception(t *testing.T) {
	_, vm := newTestWindow(t, WithLocationURL("https://example.com/app"))

	t.Run("location is the mock object", func(t *testing.T) {
		result, err := vm.RunString("window.location.href")
		if err != nil {
			t.Fatalf("Failed to read location.href: %v", err)
		}
		if result.String() != "https://example.com/app" {
			t.Errorf("Expected seeded href, got %q", result.String())
		}
	})

	t.Run("assigning location is swallowed", func(t *testing.T) {
		if _, err := vm.RunString("window.location = 'https://other.example/'"); err != nil {
			t.Fatalf("Expected assignment to be swallowed, got error: %v", err)
		}
		result, err := vm.RunString("typeof window.location")
		if err != nil {
			t.Fatalf("Failed to read location type: %v", err)
		}
		if result.String() != "object" {
			t.Errorf("Expected location to stay an object, got %q", result.String())
		}
		href, err := vm.RunString("window.location.href")
		if err != nil {
			t.Fatalf("Failed to read href: %v", err)
		}
		if href.String() != "https://example.com/app" {
			t.Errorf("Expected href unchanged, got %q", href.String())
		}
	})

	t.Run("assigning storage objects is swallowed", func(t *testing.T) {
		if _, err := vm.RunString("window.localStorage = 5; window.sessionStorage = null"); err != nil {
			t.Fatalf("Expected assignments to be swallowed, got error: %v", err)
		}
		result, err := vm.RunString("typeof window.localStorage + ',' + typeof window.sessionStorage")
		if err != nil {
			t.Fatalf("Failed to read storage types: %v", err)
		}
		if result.String() != "object,object" {
			t.Errorf("Expected 'object,object', got %q", result.String())
		}
	})

	t.Run("deleting critical surfaces is a no-op that reports success", func(t *testing.T) {
		result, err := vm.RunString("delete window.location")
		if err != nil {
			t.Fatalf("Expected delete to succeed quietly: %v", err)
		}
		if !result.ToBoolean() {
			t.Error("Expected delete to report true")
		}
		still, err := vm.RunString("typeof window.location")
		if err != nil {
			t.Fatalf("Failed to read location type: %v", err)
		}
		if still.String() != "object" {
			t.Errorf("Expected location to survive delete, got %q", still.String())
		}
	})

	t.Run("critical keys answer the in operator", func(t *testing.T) {
		result, err := vm.RunString("'location' in window && 'localStorage' in window && 'alert' in window")
		if err != nil {
			t.Fatalf("Failed in-operator check: %v", err)
		}
		if !result.ToBoolean() {
			t.Error("Expected all critical keys to be present")
		}
	})
}

func TestWindowSelfReference(t *testing.T) {
	_, vm := newTestWindow(t)

	result, err := vm.RunString("window.window === window && window.self === window && self === window")
	if err != nil {
		t.Fatalf("Failed self-reference check: %v", err)
	}
	if !result.ToBoolean() {
		t.Error("Expected window, window.window and self to be the same object")
	}
}

func TestWindowBareGlobals(t *testing.T) {
	_, vm := newTestWindow(t, WithLocationURL("https://example.com/"))

	t.Run("bare location reaches the mock", func(t *testing.T) {
		if _, err := vm.RunString("location.href = 'https://moved.example/'"); err != nil {
			t.Fatalf("Failed to set bare location.href: %v", err)
		}
		result, err := vm.RunString("window.location.href")
		if err != nil {
			t.Fatalf("Failed to read href: %v", err)
		}
		if result.String() != "https://moved.example/" {
			t.Errorf("Expected write through bare global to land, got %q", result.String())
		}
	})

	t.Run("bare storage reaches the mock", func(t *testing.T) {
		if _, err := vm.RunString("localStorage.setItem('k', 'v')"); err != nil {
			t.Fatalf("Failed bare setItem: %v", err)
		}
		result, err := vm.RunString("window.localStorage.getItem('k')")
		if err != nil {
			t.Fatalf("Failed getItem: %v", err)
		}
		if result.String() != "v" {
			t.Errorf("Expected 'v', got %q", result.String())
		}
	})

	t.Run("bare alert is callable and silent", func(t *testing.T) {
		result, err := vm.RunString("alert('hello')")
		if err != nil {
			t.Fatalf("Expected alert to be callable: %v", err)
		}
		if !goja.IsUndefined(result) {
			t.Errorf("Expected undefined from alert, got %v", result)
		}
	})

	t.Run("assigning a bare critical global routes to the mock", func(t *testing.T) {
		if _, err := vm.RunString("confirm = function() { return true }"); err != nil {
			t.Fatalf("Failed to rebind bare confirm: %v", err)
		}
		result, err := vm.RunString("window.confirm()")
		if err != nil {
			t.Fatalf("Failed to call window.confirm: %v", err)
		}
		if !result.ToBoolean() {
			t.Error("Expected rebinding through the bare global to be visible on window")
		}
	})
}

func TestWindowKeys(t *testing.T) {
	vm := goja.New()
	real := vm.NewObject()
	real.Set("innerWidth", 1280)

	w, err := New(vm, WithRealWindow(real))
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}
	if _, err := vm.RunString("window.custom = 1"); err != nil {
		t.Fatalf("Failed to set custom key: %v", err)
	}

	result, err := vm.RunString("Object.keys(window).join(',')")
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	keys := strings.Split(result.String(), ",")

	for _, want := range []string{"innerWidth", "custom", "location", "localStorage", "sessionStorage", "alert", "confirm", "prompt"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected key %q in %v", want, keys)
		}
	}

	count, err := vm.RunString("Object.keys(window).filter(function(k) { return k === 'innerWidth' }).length")
	if err != nil {
		t.Fatalf("Failed duplicate check: %v", err)
	}
	if count.ToInteger() != 1 {
		t.Errorf("Expected innerWidth to appear once, got %d", count.ToInteger())
	}
}

func TestWindowOverridePaths(t *testing.T) {
	vm := goja.New()
	real := vm.NewObject()
	navigator := vm.NewObject()
	navigator.Set("userAgent", "RealAgent/1.0")
	navigator.Set("onLine", true)
	real.Set("navigator", navigator)

	w, err := New(vm, WithRealWindow(real))
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}

	t.Run("top-level override", func(t *testing.T) {
		w.Override("devicePixelRatio", 2)
		result, err := vm.RunString("window.devicePixelRatio")
		if err != nil {
			t.Fatalf("Failed to read override: %v", err)
		}
		if result.ToInteger() != 2 {
			t.Errorf("Expected 2, got %d", result.ToInteger())
		}
	})

	t.Run("nested override shadows one field only", func(t *testing.T) {
		w.Override("navigator.onLine", false)

		online, err := vm.RunString("window.navigator.onLine")
		if err != nil {
			t.Fatalf("Failed to read navigator.onLine: %v", err)
		}
		if online.ToBoolean() {
			t.Error("Expected overridden onLine to be false")
		}

		agent, err := vm.RunString("window.navigator.userAgent")
		if err != nil {
			t.Fatalf("Failed to read navigator.userAgent: %v", err)
		}
		if agent.String() != "RealAgent/1.0" {
			t.Errorf("Expected untouched userAgent, got %q", agent.String())
		}

		if !navigator.Get("onLine").ToBoolean() {
			t.Error("Expected the real navigator to keep onLine true")
		}
	})

	t.Run("Property reads through the same path rules", func(t *testing.T) {
		if got := w.Property("navigator.userAgent").String(); got != "RealAgent/1.0" {
			t.Errorf("Expected pass-through read, got %q", got)
		}
		if w.Property("navigator.onLine").ToBoolean() {
			t.Error("Expected Property to see the override")
		}
		if !goja.IsUndefined(w.Property("navigator.missing.deep")) {
			t.Error("Expected undefined for a dead-end path")
		}
	})

	t.Run("ClearOverride restores pass-through", func(t *testing.T) {
		w.ClearOverride("navigator.onLine")
		online, err := vm.RunString("window.navigator.onLine")
		if err != nil {
			t.Fatalf("Failed to read navigator.onLine: %v", err)
		}
		if !online.ToBoolean() {
			t.Error("Expected onLine to pass through again after clear")
		}
	})

	t.Run("override under a reserved surface is refused", func(t *testing.T) {
		w.Override("localStorage.length", 99)
		result, err := vm.RunString("window.localStorage.length")
		if err != nil {
			t.Fatalf("Failed to read storage length: %v", err)
		}
		if result.ToInteger() != 0 {
			t.Errorf("Expected storage length to stay 0, got %d", result.ToInteger())
		}
	})

	t.Run("location field override routes to the location record", func(t *testing.T) {
		w.Override("location.hash", "#deep")
		result, err := vm.RunString("window.location.hash")
		if err != nil {
			t.Fatalf("Failed to read location.hash: %v", err)
		}
		if result.String() != "#deep" {
			t.Errorf("Expected '#deep', got %q", result.String())
		}
	})
}

func TestWindowOverrideAfterParentClear(t *testing.T) {
	build := func(t *testing.T) (*Window, *goja.Runtime) {
		t.Helper()
		vm := goja.New()
		real := vm.NewObject()
		navigator := vm.NewObject()
		navigator.Set("userAgent", "RealAgent/1.0")
		navigator.Set("onLine", true)
		real.Set("navigator", navigator)

		w, err := New(vm, WithRealWindow(real))
		if err != nil {
			t.Fatalf("Failed to create mock window: %v", err)
		}
		if err := w.Install(); err != nil {
			t.Fatalf("Failed to install mock window: %v", err)
		}
		return w, vm
	}

	t.Run("re-override after clearing the parent", func(t *testing.T) {
		w, vm := build(t)
		w.Override("navigator.userAgent", "Masked/1.0")
		w.ClearOverride("navigator")

		agent, err := vm.RunString("window.navigator.userAgent")
		if err != nil {
			t.Fatalf("Failed to read userAgent: %v", err)
		}
		if agent.String() != "RealAgent/1.0" {
			t.Errorf("Expected pass-through after the clear, got %q", agent.String())
		}

		w.Override("navigator.userAgent", "Masked/2.0")
		agent, err = vm.RunString("window.navigator.userAgent")
		if err != nil {
			t.Fatalf("Failed to read userAgent: %v", err)
		}
		if agent.String() != "Masked/2.0" {
			t.Errorf("Expected the re-recorded override, got %q", agent.String())
		}

		online, err := vm.RunString("window.navigator.onLine")
		if err != nil {
			t.Fatalf("Failed to read onLine: %v", err)
		}
		if !online.ToBoolean() {
			t.Error("Expected onLine to keep passing through")
		}
	})

	t.Run("re-override after a script deletes the parent", func(t *testing.T) {
		w, vm := build(t)
		w.Override("navigator.userAgent", "Masked/1.0")
		if _, err := vm.RunString("delete window.navigator"); err != nil {
			t.Fatalf("Failed to delete navigator: %v", err)
		}

		w.Override("navigator.userAgent", "Masked/3.0")
		agent, err := vm.RunString("window.navigator.userAgent")
		if err != nil {
			t.Fatalf("Failed to read userAgent: %v", err)
		}
		if agent.String() != "Masked/3.0" {
			t.Errorf("Expected the re-recorded override, got %q", agent.String())
		}
	})

	t.Run("override after a script replaces the parent", func(t *testing.T) {
		w, vm := build(t)
		w.Override("navigator.onLine", false)
		if _, err := vm.RunString("window.navigator = { platform: 'Scripted' }"); err != nil {
			t.Fatalf("Failed to replace navigator: %v", err)
		}

		w.Override("navigator.userAgent", "Masked/9.0")
		agent, err := vm.RunString("window.navigator.userAgent")
		if err != nil {
			t.Fatalf("Failed to read userAgent: %v", err)
		}
		if agent.String() != "Masked/9.0" {
			t.Errorf("Expected the override over the replacement, got %q", agent.String())
		}

		platform, err := vm.RunString("window.navigator.platform")
		if err != nil {
			t.Fatalf("Failed to read platform: %v", err)
		}
		if platform.String() != "Scripted" {
			t.Errorf("Expected the replacement object to show through, got %q", platform.String())
		}
	})
}

func TestWindowUninstall(t *testing.T) {
	vm := goja.New()
	vm.Set("alert", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue("real alert")
	})

	w, err := New(vm)
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}
	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}

	result, err := vm.RunString("alert('x')")
	if err != nil {
		t.Fatalf("Failed to call mocked alert: %v", err)
	}
	if !goja.IsUndefined(result) {
		t.Errorf("Expected mock alert to return undefined, got %v", result)
	}

	if err := w.Uninstall(); err != nil {
		t.Fatalf("Failed to uninstall: %v", err)
	}

	result, err = vm.RunString("alert('x')")
	if err != nil {
		t.Fatalf("Failed to call restored alert: %v", err)
	}
	if result.String() != "real alert" {
		t.Errorf("Expected the original alert back, got %v", result)
	}
	present, err := vm.RunString("'alert' in globalThis")
	if err != nil {
		t.Fatalf("Failed to check alert presence: %v", err)
	}
	if !present.ToBoolean() {
		t.Error("Expected alert to still be a global after uninstall")
	}

	gone, err := vm.RunString("typeof window === 'undefined' && !('window' in globalThis)")
	if err != nil {
		t.Fatalf("Failed to check window after uninstall: %v", err)
	}
	if !gone.ToBoolean() {
		t.Error("Expected window to be gone after uninstall")
	}
}

func TestWindowUninstallRemovesAddedGlobals(t *testing.T) {
	vm := goja.New()
	w, err := New(vm)
	if err != nil {
		t.Fatalf("Failed to create mock window: %v", err)
	}

	before, err := vm.RunString("'alert' in globalThis || 'location' in globalThis")
	if err != nil {
		t.Fatalf("Failed presence check before install: %v", err)
	}
	if before.ToBoolean() {
		t.Fatal("Expected a fresh runtime without alert or location")
	}

	if err := w.Install(); err != nil {
		t.Fatalf("Failed to install mock window: %v", err)
	}
	during, err := vm.RunString("'alert' in globalThis && 'location' in globalThis && 'self' in globalThis")
	if err != nil {
		t.Fatalf("Failed presence check while installed: %v", err)
	}
	if !during.ToBoolean() {
		t.Error("Expected the mock globals to be present while installed")
	}

	if err := w.Uninstall(); err != nil {
		t.Fatalf("Failed to uninstall: %v", err)
	}
	after, err := vm.RunString(
		"'window' in globalThis || 'self' in globalThis || 'location' in globalThis || " +
			"'localStorage' in globalThis || 'sessionStorage' in globalThis || " +
			"'alert' in globalThis || 'confirm' in globalThis || 'prompt' in globalThis")
	if err != nil {
		t.Fatalf("Failed presence check after uninstall: %v", err)
	}
	if after.ToBoolean() {
		t.Error("Expected every name the mock added to be removed again")
	}
}
