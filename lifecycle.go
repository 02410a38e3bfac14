package mockwindow

// Reset discards every recorded override, storage entry, dialog binding and
// shadow object by swapping in a fresh state built from the construction-time
// baseline. References to the old state keep working but are orphaned: writes
// to them can never surface through the mock again.
func (w *Window) Reset() {
	w.mu.Lock()
	w.state = newMockState(w.vm, w.real, w.realLocation, w.seedURL, w.logger)
	w.mu.Unlock()
	w.logger.Debug("mock state reset")
}

// Hooks is the slice of a test framework the mock needs: a way to run a
// function before each test
type Hooks interface {
	BeforeEach(fn func())
}

// HookFunc adapts a plain registration function to Hooks
type HookFunc func(fn func())

// BeforeEach implements Hooks
func (h HookFunc) BeforeEach(fn func()) {
	h(fn)
}

// SetupMock registers the mock's Reset with the framework hooks and resets
// once immediately so the first test starts clean
func (w *Window) SetupMock(hooks Hooks) {
	hooks.BeforeEach(w.Reset)
	w.Reset()
}

// Isolate resets the mock now and again when the test finishes, so state
// recorded inside the test cannot leak into the next one
func (w *Window) Isolate(tb interface{ Cleanup(func()) }) {
	w.Reset()
	tb.Cleanup(w.Reset)
}
