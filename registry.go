// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"code.hybscloud.com/kont"
)

// Kind is the shape of a module's entry point.
type Kind uint8

const (
	KindCoroutine Kind = iota + 1
	KindExprCoroutine
	KindRoutine
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindCoroutine:
		return "coroutine"
	case KindExprCoroutine:
		return "expr-coroutine"
	case KindRoutine:
		return "routine"
	case KindCallable:
		return "callable"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Entry is a module's designated entry point.
type Entry struct {
	kind     Kind
	eff      func() kont.Eff[any]
	expr     func() kont.Expr[any]
	routine  func(context.Context, Exe) (any, error)
	callable func() (any, error)
}

// Coroutine makes a resumable entry from a Cont-world script built with
// [Delegate] and the fused helpers.
func Coroutine(f func() kont.Eff[any]) Entry {
	return Entry{kind: KindCoroutine, eff: f}
}

// ExprCoroutine makes a resumable entry from an Expr-world script.
func ExprCoroutine(f func() kont.Expr[any]) Entry {
	return Entry{kind: KindExprCoroutine, expr: f}
}

// Routine makes a resumable entry from a direct-style function that
// delegates through exe.
func Routine(f func(ctx context.Context, exe Exe) (any, error)) Entry {
	return Entry{kind: KindRoutine, routine: f}
}

// Callable makes a plain entry that runs to completion without delegating.
func Callable(f func() (any, error)) Entry {
	return Entry{kind: KindCallable, callable: f}
}

// Kind returns the entry's shape, or 0 for the zero Entry.
func (e Entry) Kind() Kind { return e.kind }

func (e Entry) valid() bool {
	switch e.kind {
	case KindCoroutine:
		return e.eff != nil
	case KindExprCoroutine:
		return e.expr != nil
	case KindRoutine:
		return e.routine != nil
	case KindCallable:
		return e.callable != nil
	}
	return false
}

func (e Entry) stepper() stepper {
	switch e.kind {
	case KindCoroutine:
		eff := e.eff
		return &coroutineStepper{entry: func() kont.Expr[any] { return Reify(eff()) }}
	case KindExprCoroutine:
		return &coroutineStepper{entry: e.expr}
	case KindRoutine:
		return newRoutineStepper(e.routine)
	default:
		return callStepper{fn: e.callable}
	}
}

// Module loads a script and returns its entry point. It runs on every load,
// so it plays the part of the module's load-time code.
type Module func() (Entry, error)

// FunctionHandle is a loaded module's entry point.
type FunctionHandle struct {
	Path  string
	Name  string
	entry Entry
}

// NewHandle wraps an entry point loaded from path.
func NewHandle(path string, e Entry) *FunctionHandle {
	return &FunctionHandle{Path: path, Name: moduleName(path), entry: e}
}

// Kind returns the shape of the entry point.
func (h *FunctionHandle) Kind() Kind { return h.entry.kind }

// Loader resolves a func_path to a freshly loaded handle.
type Loader interface {
	Load(path string) (*FunctionHandle, error)
}

// Registry resolves module paths to compiled-in modules and, when enabled,
// Go plugins. Loads are never cached.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
	plugins *PluginLoader
}

// NewRegistry returns an empty registry with plugins disabled.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// DefaultRegistry is the registry script packages register into from init.
var DefaultRegistry = NewRegistry()

// Register makes m available under name in DefaultRegistry.
func Register(name string, m Module) {
	DefaultRegistry.Register(name, m)
}

// Register makes m available under name. It panics if name is empty, m is
// nil or name is already registered.
func (r *Registry) Register(name string, m Module) {
	if name == "" || m == nil {
		panic("guest: Register with empty name or nil module")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.modules[name]; dup {
		panic("guest: Register called twice for module " + name)
	}
	r.modules[name] = m
}

// UsePlugins enables loading ".so" paths through l. A nil l disables it.
func (r *Registry) UsePlugins(l *PluginLoader) {
	r.mu.Lock()
	r.plugins = l
	r.mu.Unlock()
}

// Modules returns the registered module names.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	return names
}

// Load resolves path and runs the module's load step. Resolution order:
// exact registered name, ".so" plugin, registered base name without
// extension. Every failure is a *ScriptLoadError.
func (r *Registry) Load(path string) (*FunctionHandle, error) {
	m, err := r.resolve(path)
	if err != nil {
		return nil, &ScriptLoadError{Path: path, Err: err}
	}
	e, err := loadModule(m)
	if err != nil {
		return nil, &ScriptLoadError{Path: path, Err: err}
	}
	if !e.valid() {
		return nil, &ScriptLoadError{Path: path, Err: ErrNoEntryPoint}
	}
	return NewHandle(path, e), nil
}

func (r *Registry) resolve(path string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.modules[path]; ok {
		return m, nil
	}
	if r.plugins != nil && filepath.Ext(path) == ".so" {
		return r.plugins.Open(path)
	}
	if m, ok := r.modules[moduleName(path)]; ok {
		return m, nil
	}
	return nil, ErrModuleNotFound
}

// loadModule runs m, turning a panic into an error that keeps the trace.
func loadModule(m Module) (e Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecutionError{Value: r, Trace: string(debug.Stack())}
		}
	}()
	return m()
}

// moduleName is the last path segment without its extension.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
