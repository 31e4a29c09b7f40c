// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest_test

import (
	"testing"

	"code.hybscloud.com/guest"
	"code.hybscloud.com/kont"
)

func TestLoopCountdown(t *testing.T) {
	s := guest.NewSession()
	r := s.Start(handle(guest.Coroutine(func() kont.Eff[any] {
		return guest.Loop(3, func(n int) kont.Eff[kont.Either[int, any]] {
			if n == 0 {
				return kont.Pure(kont.Right[int, any]("liftoff"))
			}
			return guest.DelegateThen(n, kont.Pure(kont.Left[int, any](n-1)))
		})
	})))
	for _, want := range []int{3, 2, 1} {
		if r.Kind != guest.StepYielded || r.Value != want {
			t.Fatalf("got %+v, want yielded %d", r, want)
		}
		r = s.Resume(nil)
	}
	if r.Kind != guest.StepFinished || r.Value != "liftoff" {
		t.Fatalf("got %+v, want finished liftoff", r)
	}
}

func TestConverse(t *testing.T) {
	s := guest.NewSession()
	turns := 0
	r := s.Start(handle(guest.Coroutine(func() kont.Eff[any] {
		return guest.Converse("open", func(reply any) (any, bool) {
			turns++
			if reply == "bye" {
				return turns, false
			}
			return reply, true
		})
	})))
	if r.Value != "open" {
		t.Fatalf("start got %+v, want yielded open", r)
	}
	if r = s.Resume("again"); r.Kind != guest.StepYielded || r.Value != "again" {
		t.Fatalf("got %+v, want yielded again", r)
	}
	if r = s.Resume("bye"); r.Kind != guest.StepFinished || r.Value != 2 {
		t.Fatalf("got %+v, want finished 2", r)
	}
}

func TestLoopManyTurns(t *testing.T) {
	const turns = 1000
	s := guest.NewSession()
	r := s.Start(handle(guest.ExprCoroutine(func() kont.Expr[any] {
		return guest.Reify(guest.Loop(0, func(n int) kont.Eff[kont.Either[int, any]] {
			if n == turns {
				return kont.Pure(kont.Right[int, any](n))
			}
			return guest.DelegateThen(n, kont.Pure(kont.Left[int, any](n+1)))
		}))
	})))
	for i := 0; i < turns; i++ {
		if r.Kind != guest.StepYielded {
			t.Fatalf("turn %d got %+v", i, r)
		}
		r = s.Resume(i)
	}
	if r.Kind != guest.StepFinished || r.Value != turns {
		t.Fatalf("got %+v, want finished %d", r, turns)
	}
}
