// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"fmt"
	"runtime/debug"

	"code.hybscloud.com/kont"
)

// StepKind classifies the outcome of one step of a resumable computation.
type StepKind uint8

const (
	// StepYielded: the computation delegated Value to the host and waits.
	StepYielded StepKind = iota + 1
	// StepFinished: the computation completed with Value.
	StepFinished
	// StepFailed: the computation raised Err.
	StepFailed
)

func (k StepKind) String() string {
	switch k {
	case StepYielded:
		return "yielded"
	case StepFinished:
		return "finished"
	case StepFailed:
		return "failed"
	}
	return fmt.Sprintf("StepKind(%d)", uint8(k))
}

// StepResult is the outcome of [Session.Start] or [Session.Resume].
// Kind is the completion flag; Value is never overloaded as a signal.
type StepResult struct {
	Kind  StepKind
	Value any
	Err   error
}

// Yielded returns a delegation outcome.
func Yielded(v any) StepResult { return StepResult{Kind: StepYielded, Value: v} }

// Finished returns a completion outcome.
func Finished(v any) StepResult { return StepResult{Kind: StepFinished, Value: v} }

// Failed returns a failure outcome.
func Failed(err error) StepResult { return StepResult{Kind: StepFailed, Err: err} }

// Done reports whether the computation can no longer be resumed.
func (r StepResult) Done() bool { return r.Kind != StepYielded }

// stepper is one resumable computation as the session sees it.
type stepper interface {
	start() StepResult
	resume(v any) StepResult
	release()
}

// recoverStep turns a panic raised by script code into a failed step.
// It must be deferred directly.
func recoverStep(res *StepResult) {
	if r := recover(); r != nil {
		*res = Failed(&ExecutionError{Value: r, Trace: string(debug.Stack())})
	}
}

type suspension = kont.Suspension[kont.Either[error, any]]

// coroutineStepper drives an Expr-world script one effect at a time.
// Delegation suspends the step; error effects are dispatched eagerly.
type coroutineStepper struct {
	entry func() kont.Expr[any]
	susp  *suspension
}

func (s *coroutineStepper) start() (res StepResult) {
	defer recoverStep(&res)
	wrapped := kont.ExprMap(s.entry(), func(v any) kont.Either[error, any] {
		return kont.Right[error, any](v)
	})
	return s.advance(kont.StepExpr(wrapped))
}

func (s *coroutineStepper) resume(v any) (res StepResult) {
	susp := s.susp
	if susp == nil {
		return Failed(ErrNotAwaiting)
	}
	s.susp = nil
	defer recoverStep(&res)
	return s.advance(susp.Resume(Reply{Value: v}))
}

// advance runs until the next Delegation or completion.
func (s *coroutineStepper) advance(result kont.Either[error, any], susp *suspension) StepResult {
	for susp != nil {
		switch op := susp.Op().(type) {
		case Delegation:
			s.susp = susp
			return Yielded(op.Value)
		case errorDispatcher:
			v, err, ok := dispatchError(op)
			if !ok {
				susp.Discard()
				return Failed(err)
			}
			result, susp = susp.Resume(v)
		default:
			susp.Discard()
			return Failed(fmt.Errorf("%w: %T", ErrUnhandledEffect, op))
		}
	}
	if err, ok := result.GetLeft(); ok {
		return Failed(err)
	}
	v, _ := result.GetRight()
	return Finished(v)
}

func (s *coroutineStepper) release() {
	if s.susp != nil {
		s.susp.Discard()
		s.susp = nil
	}
}

// callStepper runs a plain callable; it never suspends.
type callStepper struct {
	fn func() (any, error)
}

func (s callStepper) start() (res StepResult) {
	defer recoverStep(&res)
	v, err := s.fn()
	if err != nil {
		return Failed(err)
	}
	return Finished(v)
}

func (callStepper) resume(any) StepResult { return Failed(ErrNotAwaiting) }

func (callStepper) release() {}
