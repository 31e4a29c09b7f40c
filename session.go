// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"errors"
	"fmt"

	"code.hybscloud.com/atomix"
)

// Status is the lifecycle state of a [Session].
type Status uint8

const (
	StatusIdle Status = iota
	StatusRunning
	StatusAwaitingHostReply
	StatusCompleted
	StatusCrashed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusAwaitingHostReply:
		return "awaiting_host_reply"
	case StatusCompleted:
		return "completed"
	case StatusCrashed:
		return "crashed"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Busy reports whether a computation is in flight.
func (s Status) Busy() bool {
	return s == StatusRunning || s == StatusAwaitingHostReply
}

// Serial identifies a started computation. Serials increase
// monotonically across the process.
type Serial = uint32

var serials atomix.Uint32

// Session owns at most one in-flight resumable computation.
//
// A session is not safe for concurrent use; one driver owns it.
type Session struct {
	status Status
	handle *FunctionHandle
	step   stepper
	serial Serial
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{}
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status { return s.status }

// Serial returns the serial of the most recently started computation, or 0.
func (s *Session) Serial() Serial { return s.serial }

// Handle returns the handle of the current or last computation.
func (s *Session) Handle() *FunctionHandle { return s.handle }

// Start begins h's entry point with no input. It fails with a
// *ProtocolError wrapping ErrSessionBusy, and leaves the in-flight
// computation untouched, when the session is busy.
func (s *Session) Start(h *FunctionHandle) StepResult {
	if s.status.Busy() {
		return Failed(&ProtocolError{
			Reason: fmt.Sprintf("start %q while %s", h.Path, s.status),
			Err:    ErrSessionBusy,
		})
	}
	s.Reset()
	s.handle = h
	s.step = h.entry.stepper()
	s.serial = serials.Add(1)
	s.status = StatusRunning
	return s.settle(s.step.start())
}

// Resume feeds the host's callback value into the suspended computation.
// Outside StatusAwaitingHostReply it fails with a *ProtocolError and the
// status is unchanged.
func (s *Session) Resume(v any) StepResult {
	if s.status != StatusAwaitingHostReply {
		return Failed(&ProtocolError{
			Reason: "ditlang_callback while " + s.status.String(),
			Err:    ErrNotAwaiting,
		})
	}
	s.status = StatusRunning
	return s.settle(s.step.resume(v))
}

// Reset releases the computation, if any, and returns to StatusIdle.
func (s *Session) Reset() {
	s.release()
	s.handle = nil
	s.status = StatusIdle
}

// abort crashes the computation whose latest outcome could not be
// delivered to the host.
func (s *Session) abort(err error) StepResult {
	return s.settle(Failed(err))
}

// settle applies the sentinel law and moves the status to match r.
func (s *Session) settle(r StepResult) StepResult {
	if r.Kind != StepFailed && IsDone(r.Value) {
		r = Finished(nil)
	}
	switch r.Kind {
	case StepYielded:
		s.status = StatusAwaitingHostReply
	case StepFinished:
		s.status = StatusCompleted
		s.release()
	default:
		r.Err = s.executionError(r.Err)
		s.status = StatusCrashed
		s.release()
	}
	return r
}

func (s *Session) release() {
	if s.step != nil {
		s.step.release()
		s.step = nil
	}
}

func (s *Session) executionError(err error) error {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return err
	}
	path := ""
	if s.handle != nil {
		path = s.handle.Path
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		if ee.Path == "" {
			ee.Path = path
		}
		return err
	}
	return &ExecutionError{Path: path, Err: err}
}
