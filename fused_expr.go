// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"code.hybscloud.com/kont"
)

// exprReturnFrame is pre-allocated to avoid boxing ReturnFrame{} on every
// fused constructor.
var exprReturnFrame kont.Frame = kont.ReturnFrame{}

// identityResume is the identity resume function for EffectFrame construction.
func identityResume(v kont.Erased) kont.Erased { return v }

// ExprDelegateThen delegates v, ignores the reply and continues with next.
// Fuses ExprPerform(Delegation{Value: v}) + ExprThen.
func ExprDelegateThen[B any](v any, next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = Delegation{Value: v}
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

func delegateBindUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(any) kont.Expr[B])
	result := f(current.(Reply).Value)
	return kont.Erased(result.Value), result.Frame
}

// ExprDelegateBind delegates v and passes the host's reply value to f.
// Fuses ExprPerform(Delegation{Value: v}) + ExprBind.
func ExprDelegateBind[B any](v any, f func(any) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = delegateBindUnwind[B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Delegation{Value: v}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// ExprFinish completes an Expr-world script with v.
func ExprFinish(v any) kont.Expr[any] {
	return kont.ExprReturn(v)
}
