// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"context"
	"errors"
	"runtime/debug"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// handoffCapacity is the bounded capacity of routine handoff queues.
// At most one event and one reply are outstanding at a time.
const handoffCapacity = 4

// Exe delegates value to the host from a Routine and blocks until the host
// answers. It returns ErrSessionClosed once the session has been released.
// Exe must not be called from more than one goroutine at a time.
type Exe func(value any) (any, error)

// routineEvent is one step outcome posted by the routine goroutine.
type routineEvent struct {
	kind  StepKind
	value any
	err   error
}

// handoff is the transport between the driver and a routine goroutine:
// two single-producer single-consumer bounded queues, one per direction,
// plus a shared close flag.
//
// Queue operations are non-blocking and return iox.ErrWouldBlock at the
// boundary; both sides wait past it with adaptive backoff.
type handoff struct {
	events  lfq.SPSC[routineEvent] // routine → driver
	replies lfq.SPSC[Reply]        // driver → routine
	closed  atomix.Uint32
}

func newHandoff() *handoff {
	h := &handoff{}
	h.events.Init(handoffCapacity)
	h.replies.Init(handoffCapacity)
	return h
}

func (h *handoff) isClosed() bool { return h.closed.Load() != 0 }

// post enqueues ev unless the handoff is closed first.
func (h *handoff) post(ev routineEvent) bool {
	var bo iox.Backoff
	for !h.isClosed() {
		if err := h.events.Enqueue(&ev); err == nil {
			return true
		}
		bo.Wait()
	}
	return false
}

// await dequeues the next reply unless the handoff is closed first.
func (h *handoff) await() (Reply, bool) {
	var bo iox.Backoff
	for !h.isClosed() {
		r, err := h.replies.Dequeue()
		if err == nil {
			return r, true
		}
		bo.Wait()
	}
	return Reply{}, false
}

// next blocks the driver until the routine posts its next outcome.
func (h *handoff) next() StepResult {
	var bo iox.Backoff
	for {
		ev, err := h.events.Dequeue()
		if err == nil {
			return StepResult{Kind: ev.kind, Value: ev.value, Err: ev.err}
		}
		if !errors.Is(err, iox.ErrWouldBlock) {
			return Failed(err)
		}
		bo.Wait()
	}
}

// reply hands v to the routine waiting in Exe.
func (h *handoff) reply(v any) {
	r := Reply{Value: v}
	var bo iox.Backoff
	for h.replies.Enqueue(&r) != nil {
		bo.Wait()
	}
}

// routineStepper runs a direct-style script on its own goroutine. The driver
// and the routine alternate strictly: only one of them runs at a time.
type routineStepper struct {
	fn     func(ctx context.Context, exe Exe) (any, error)
	h      *handoff
	ctx    context.Context
	cancel context.CancelFunc
}

func newRoutineStepper(fn func(context.Context, Exe) (any, error)) *routineStepper {
	ctx, cancel := context.WithCancel(context.Background())
	return &routineStepper{fn: fn, h: newHandoff(), ctx: ctx, cancel: cancel}
}

func (s *routineStepper) start() StepResult {
	go s.run()
	return s.h.next()
}

func (s *routineStepper) resume(v any) StepResult {
	s.h.reply(v)
	return s.h.next()
}

func (s *routineStepper) release() {
	s.h.closed.Add(1)
	s.cancel()
}

func (s *routineStepper) run() {
	var ev routineEvent
	defer func() {
		if r := recover(); r != nil {
			ev = routineEvent{kind: StepFailed, err: &ExecutionError{Value: r, Trace: string(debug.Stack())}}
		}
		s.h.post(ev)
	}()
	v, err := s.fn(s.ctx, s.exe)
	if err != nil {
		ev = routineEvent{kind: StepFailed, err: err}
		return
	}
	ev = routineEvent{kind: StepFinished, value: v}
}

func (s *routineStepper) exe(v any) (any, error) {
	if !s.h.post(routineEvent{kind: StepYielded, value: v}) {
		return nil, ErrSessionClosed
	}
	r, ok := s.h.await()
	if !ok {
		return nil, ErrSessionClosed
	}
	return r.Value, nil
}
