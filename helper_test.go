// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest_test

import (
	"testing"

	"code.hybscloud.com/guest"
	"code.hybscloud.com/kont"
)

// module wraps a fixed entry as a Module.
func module(e guest.Entry) guest.Module {
	return func() (guest.Entry, error) { return e, nil }
}

// newRegistry returns a registry holding mods, plugins disabled.
func newRegistry(mods map[string]guest.Module) *guest.Registry {
	r := guest.NewRegistry()
	for name, m := range mods {
		r.Register(name, m)
	}
	return r
}

// handle wraps e as a loaded handle without going through a registry.
func handle(e guest.Entry) *guest.FunctionHandle {
	return guest.NewHandle("test_module", e)
}

// yieldThenReturn delegates first and finishes with last, ignoring the reply.
func yieldThenReturn(first, last any) guest.Entry {
	return guest.Coroutine(func() kont.Eff[any] {
		return guest.DelegateThen(first, guest.Finish(last))
	})
}

// yieldAll delegates each value in order and then finishes with result.
func yieldAll(values []any, result any) guest.Entry {
	return guest.Coroutine(func() kont.Eff[any] {
		return guest.Loop(values, func(rest []any) kont.Eff[kont.Either[[]any, any]] {
			if len(rest) == 0 {
				return kont.Pure(kont.Right[[]any, any](result))
			}
			return guest.DelegateThen(rest[0], kont.Pure(kont.Left[[]any, any](rest[1:])))
		})
	})
}

// mustOne fails unless out holds exactly one message of type want.
func mustOne(t *testing.T, out []*guest.Message, want guest.Type) *guest.Message {
	t.Helper()
	if len(out) != 1 {
		t.Fatalf("got %d messages %v, want one %s", len(out), out, want)
	}
	if out[0].Type != want {
		t.Fatalf("got %s, want %s", out[0], want)
	}
	return out[0]
}
