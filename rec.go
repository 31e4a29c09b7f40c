// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"code.hybscloud.com/kont"
)

// Loop runs a recursive script.
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

// Converse delegates first, then keeps delegating whatever next returns for
// each host reply. When next reports more=false its value becomes the
// script's result.
func Converse(first any, next func(reply any) (v any, more bool)) kont.Eff[any] {
	return Loop(first, func(v any) kont.Eff[kont.Either[any, any]] {
		return DelegateBind(v, func(reply any) kont.Eff[kont.Either[any, any]] {
			nv, more := next(reply)
			if more {
				return kont.Pure(kont.Left[any, any](nv))
			}
			return kont.Pure(kont.Right[any, any](nv))
		})
	})
}
