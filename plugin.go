// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"context"
	"fmt"
	"path/filepath"
	"plugin"

	"code.hybscloud.com/kont"
)

// DefaultEntrySymbol is the symbol looked up in plugin modules.
const DefaultEntrySymbol = "ReservedName"

// PluginLoader loads modules from Go plugins (shared objects built with
// -buildmode=plugin against this package).
//
// The Go runtime opens a given shared object once per process. The entry
// symbol is looked up again on every load, and a Module symbol runs again,
// but package-level state inside the plugin persists across loads.
type PluginLoader struct {
	// Symbol is the exported entry point name; DefaultEntrySymbol if empty.
	Symbol string
	// Dir resolves relative plugin paths.
	Dir string
}

// Open returns a Module that loads path.
func (l *PluginLoader) Open(path string) (Module, error) {
	if !filepath.IsAbs(path) && l.Dir != "" {
		path = filepath.Join(l.Dir, path)
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModuleNotFound, err)
	}
	name := l.Symbol
	if name == "" {
		name = DefaultEntrySymbol
	}
	sym, err := p.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEntryPoint, err)
	}
	return symbolModule(name, sym)
}

// symbolModule adapts a looked-up symbol to a Module. Functions come back
// as values, variables as pointers; both are accepted.
func symbolModule(name string, sym plugin.Symbol) (Module, error) {
	entry := func(e Entry) Module {
		return func() (Entry, error) { return e, nil }
	}
	switch f := sym.(type) {
	case func() (Entry, error):
		return f, nil
	case *func() (Entry, error):
		return *f, nil
	case Module:
		return f, nil
	case *Module:
		return *f, nil
	case func() kont.Eff[any]:
		return entry(Coroutine(f)), nil
	case *func() kont.Eff[any]:
		return entry(Coroutine(*f)), nil
	case func() kont.Expr[any]:
		return entry(ExprCoroutine(f)), nil
	case *func() kont.Expr[any]:
		return entry(ExprCoroutine(*f)), nil
	case func(context.Context, Exe) (any, error):
		return entry(Routine(f)), nil
	case *func(context.Context, Exe) (any, error):
		return entry(Routine(*f)), nil
	case func() (any, error):
		return entry(Callable(f)), nil
	case *func() (any, error):
		return entry(Callable(*f)), nil
	}
	return nil, fmt.Errorf("%w: symbol %s has unsupported type %T", ErrNoEntryPoint, name, sym)
}
