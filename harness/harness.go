// Package harness runs scripts and HTML pages against a mocked window
// environment, wiring a goja runtime, a baseline browser-shaped global and
// the mock window into a single ready-to-run unit.
package harness

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisuehlinger/mockwindow"
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/url"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ScriptLoader resolves the body of an external script referenced by a src
// attribute. The harness performs no I/O of its own.
type ScriptLoader func(src string) (string, error)

// Harness owns a runtime with the mock window installed over a baseline
// environment of side-effect-free browser globals
type Harness struct {
	vm     *goja.Runtime
	window *mockwindow.Window
	logger *zap.Logger
	loader ScriptLoader

	locationURL string
}

// Option configures a Harness
type Option func(*Harness)

// WithLogger sets the logger for the harness, its console and the mock.
// Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithLocationURL seeds the mock location from urlStr
func WithLocationURL(urlStr string) Option {
	return func(h *Harness) {
		h.locationURL = urlStr
	}
}

// WithScriptLoader supplies the loader used for script elements with a src
// attribute; without one those elements are skipped
func WithScriptLoader(loader ScriptLoader) Option {
	return func(h *Harness) {
		h.loader = loader
	}
}

// New builds a runtime, installs console and URL support, the baseline window
// environment and the mock window on top of it
func New(opts ...Option) (*Harness, error) {
	h := &Harness{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("harness")
	h.vm = goja.New()

	h.setupConsole()
	real := h.setupEnvironment()

	mockOpts := []mockwindow.Option{
		mockwindow.WithRealWindow(real),
		mockwindow.WithLogger(h.logger),
	}
	if h.locationURL != "" {
		mockOpts = append(mockOpts, mockwindow.WithLocationURL(h.locationURL))
	}
	w, err := mockwindow.New(h.vm, mockOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build mock window: %w", err)
	}
	if err := w.Install(); err != nil {
		return nil, fmt.Errorf("failed to install mock window: %w", err)
	}
	h.window = w

	// parent and top refer back through the proxy, like a top-level window
	real.Set("parent", w.Object())
	real.Set("top", w.Object())

	return h, nil
}

// setupConsole wires the require registry with a console backed by the
// harness logger, plus URL and URLSearchParams
func (h *Harness) setupConsole() {
	registry := require.NewRegistry()
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(consolePrinter{
		logger: h.logger.Named("console"),
	}))
	registry.Enable(h.vm)
	console.Enable(h.vm)
	url.Enable(h.vm)
}

// consolePrinter adapts zap to the goja_nodejs console printer
type consolePrinter struct {
	logger *zap.Logger
}

func (p consolePrinter) Log(s string) {
	p.logger.Info(s)
}

func (p consolePrinter) Warn(s string) {
	p.logger.Warn(s)
}

func (p consolePrinter) Error(s string) {
	p.logger.Error(s)
}

// setupEnvironment builds the plain object the mock wraps: the
// side-effect-free members scripts commonly probe
func (h *Harness) setupEnvironment() *goja.Object {
	vm := h.vm
	window := vm.NewObject()

	navigator := vm.NewObject()
	navigator.Set("userAgent", "MockWindow/1.0")
	navigator.Set("language", "en-US")
	navigator.Set("languages", []string{"en-US", "en"})
	navigator.Set("platform", "MockWindow")
	navigator.Set("onLine", true)
	navigator.Set("cookieEnabled", false)
	window.Set("navigator", navigator)
	vm.Set("navigator", navigator)

	screen := vm.NewObject()
	screen.Set("width", 1024)
	screen.Set("height", 768)
	screen.Set("availWidth", 1024)
	screen.Set("availHeight", 768)
	screen.Set("colorDepth", 24)
	screen.Set("pixelDepth", 24)
	window.Set("screen", screen)
	vm.Set("screen", screen)

	window.Set("innerWidth", 1024)
	window.Set("innerHeight", 768)
	window.Set("outerWidth", 1024)
	window.Set("outerHeight", 768)
	window.Set("devicePixelRatio", 1.0)

	window.Set("opener", goja.Null())
	window.Set("frameElement", goja.Null())

	performance := vm.NewObject()
	start := time.Now()
	performance.Set("now", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(float64(time.Since(start).Microseconds()) / 1000.0)
	})
	performance.Set("timeOrigin", float64(start.UnixMilli()))
	window.Set("performance", performance)
	vm.Set("performance", performance)

	// Storage is a named constructor that cannot be instantiated; the live
	// areas come from the mock
	vm.Set("Storage", vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		panic(vm.NewTypeError("Illegal constructor"))
	}))

	return window
}

// RunScript compiles src in sloppy mode and runs it, recovering goja panics
// into errors
func (h *Harness) RunScript(name, src string) (result goja.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script execution panic in %s: %v", name, p)
		}
	}()

	program, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", name, err)
	}
	return h.vm.RunProgram(program)
}

// LoadHTML parses an HTML document and executes its script elements in
// document order. Inline bodies run directly; src scripts go through the
// configured ScriptLoader. Script errors do not stop later scripts; all of
// them come back joined.
func (h *Harness) LoadHTML(src string) error {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	var errs []error
	index := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			index++
			if err := h.runScriptNode(n, index); err != nil {
				errs = append(errs, err)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return errors.Join(errs...)
}

// runScriptNode executes one script element
func (h *Harness) runScriptNode(n *html.Node, index int) error {
	var srcAttr, typeAttr string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "src":
			srcAttr = attr.Val
		case "type":
			typeAttr = attr.Val
		}
	}
	if !isJavaScriptType(typeAttr) {
		h.logger.Debug("skipping script element with non-classic type", zap.String("type", typeAttr))
		return nil
	}

	if srcAttr != "" {
		if h.loader == nil {
			h.logger.Debug("skipping external script, no loader configured", zap.String("src", srcAttr))
			return nil
		}
		body, err := h.loader(srcAttr)
		if err != nil {
			return fmt.Errorf("failed to load script %s: %w", srcAttr, err)
		}
		_, err = h.RunScript(srcAttr, body)
		return err
	}

	var body strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			body.WriteString(c.Data)
		}
	}
	if strings.TrimSpace(body.String()) == "" {
		return nil
	}
	_, err := h.RunScript(fmt.Sprintf("inline-script-%d", index), body.String())
	return err
}

// isJavaScriptType reports whether a script type attribute names classic
// JavaScript; modules and data blocks are skipped
func isJavaScriptType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "text/javascript", "application/javascript", "application/ecmascript":
		return true
	}
	return false
}

// Window returns the installed mock
func (h *Harness) Window() *mockwindow.Window {
	return h.window
}

// VM returns the underlying runtime
func (h *Harness) VM() *goja.Runtime {
	return h.vm
}

// Reset discards everything the mock recorded
func (h *Harness) Reset() {
	h.window.Reset()
}
