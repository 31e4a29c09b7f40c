// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"code.hybscloud.com/kont"
)

// DelegateThen delegates v, ignores the host's reply and continues with next.
// Fuses Delegate(v) + Then.
func DelegateThen[B any](v any, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Delegate(v), next)
}

// DelegateBind delegates v and passes the host's reply value to f.
// Fuses Delegate(v) + Bind.
func DelegateBind[B any](v any, f func(any) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(Delegate(v), func(r Reply) kont.Eff[B] {
		return f(r.Value)
	})
}

// Finish completes a script with v.
func Finish(v any) kont.Eff[any] {
	return kont.Pure(v)
}

// Fail aborts a script with err; the daemon reports it as a crash.
func Fail(err error) kont.Eff[any] {
	return kont.ThrowError[error, any](err)
}

// Reify converts a Cont-world script to Expr-world; coroutine entries are
// always stepped in Expr-world.
func Reify[A any](m kont.Eff[A]) kont.Expr[A] { return kont.Reify(m) }

// Reflect lets an Expr-world fragment be composed with Bind and the Cont
// helpers above.
func Reflect[A any](m kont.Expr[A]) kont.Eff[A] { return kont.Reflect(m) }
