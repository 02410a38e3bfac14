package mockwindow

import (
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Dialog slot names, which double as the window properties they replace
const (
	dialogAlert   = "alert"
	dialogConfirm = "confirm"
	dialogPrompt  = "prompt"
)

// isDialog reports whether name is one of the three dialog slots
func isDialog(name string) bool {
	return name == dialogAlert || name == dialogConfirm || name == dialogPrompt
}

// Dialogs holds the three replaceable dialog bindings. The defaults return
// immediately without any UI: alert and confirm yield undefined, prompt
// yields null. Assigning window.alert and friends from a script swaps the
// binding; the next reset restores the defaults.
type Dialogs struct {
	vm     *goja.Runtime
	logger *zap.Logger

	mu       sync.RWMutex
	bindings map[string]goja.Value
}

// newDialogs creates the dialog slots with their default bindings
func newDialogs(vm *goja.Runtime, logger *zap.Logger) *Dialogs {
	d := &Dialogs{
		vm:       vm,
		logger:   logger,
		bindings: make(map[string]goja.Value, 3),
	}
	d.bindings[dialogAlert] = vm.ToValue(func(call goja.FunctionCall) goja.Value {
		d.logCall(dialogAlert, call)
		return goja.Undefined()
	})
	d.bindings[dialogConfirm] = vm.ToValue(func(call goja.FunctionCall) goja.Value {
		d.logCall(dialogConfirm, call)
		return goja.Undefined()
	})
	d.bindings[dialogPrompt] = vm.ToValue(func(call goja.FunctionCall) goja.Value {
		d.logCall(dialogPrompt, call)
		return goja.Null()
	})
	return d
}

func (d *Dialogs) logCall(name string, call goja.FunctionCall) {
	message := ""
	if len(call.Arguments) > 0 {
		message = call.Arguments[0].String()
	}
	d.logger.Debug("dialog intercepted",
		zap.String("dialog", name),
		zap.String("message", message))
}

// Binding returns the function currently bound to name
func (d *Dialogs) Binding(name string) goja.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bindings[name]
}

// SetBinding replaces the binding for name. The value is stored as-is; the
// mock never invokes it on its own.
func (d *Dialogs) SetBinding(name string, fn goja.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[name] = fn
}

// OnAlert binds a Go function to the alert slot
func (d *Dialogs) OnAlert(fn func(message string)) {
	d.SetBinding(dialogAlert, d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		message := ""
		if len(call.Arguments) > 0 {
			message = call.Arguments[0].String()
		}
		fn(message)
		return goja.Undefined()
	}))
}

// OnConfirm binds a Go function to the confirm slot; its return value becomes
// the confirm result
func (d *Dialogs) OnConfirm(fn func(message string) bool) {
	d.SetBinding(dialogConfirm, d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		message := ""
		if len(call.Arguments) > 0 {
			message = call.Arguments[0].String()
		}
		return d.vm.ToValue(fn(message))
	}))
}

// OnPrompt binds a Go function to the prompt slot. Returning ok=false yields
// null, the same as a dismissed prompt.
func (d *Dialogs) OnPrompt(fn func(message, defaultValue string) (string, bool)) {
	d.SetBinding(dialogPrompt, d.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		message := ""
		if len(call.Arguments) > 0 {
			message = call.Arguments[0].String()
		}
		defaultValue := ""
		if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) && !goja.IsNull(call.Arguments[1]) {
			defaultValue = call.Arguments[1].String()
		}
		value, ok := fn(message, defaultValue)
		if !ok {
			return goja.Null()
		}
		return d.vm.ToValue(value)
	}))
}
