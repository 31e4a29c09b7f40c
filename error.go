// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"errors"
	"fmt"
	"strings"

	"code.hybscloud.com/kont"
)

var (
	ErrUnknownType         = errors.New("guest: unknown message type")
	ErrFrameTooLarge       = errors.New("guest: frame too large")
	ErrUnencodable         = errors.New("guest: unencodable result")
	ErrModuleNotFound      = errors.New("guest: module not found")
	ErrNoEntryPoint        = errors.New("guest: module has no entry point")
	ErrSessionClosed       = errors.New("guest: session closed")
	ErrSessionBusy         = errors.New("guest: session busy")
	ErrNotAwaiting         = errors.New("guest: session is not awaiting a host reply")
	ErrDelegationInJobMode = errors.New("guest: delegation is not available in job mode")
	ErrUnhandledEffect     = errors.New("guest: unhandled effect")
)

// TransportError reports a failure to reach the host. It is the only error
// that terminates the daemon.
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("guest: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed frame or a message the state machine
// does not accept in its current state.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("guest: protocol error: %s: %v", e.Reason, e.Err)
	}
	return "guest: protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolErrorf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// ScriptLoadError reports a module that could not be resolved or loaded.
type ScriptLoadError struct {
	Path string
	Err  error
}

func (e *ScriptLoadError) Error() string {
	return fmt.Sprintf("guest: load %q: %v", e.Path, e.Err)
}

func (e *ScriptLoadError) Unwrap() error { return e.Err }

// ExecutionError reports a failure raised while starting or resuming a
// script. Value holds a recovered panic value; Trace the goroutine stack at
// the point of recovery. Err is set when the script failed with an error.
type ExecutionError struct {
	Path  string
	Value any
	Err   error
	Trace string
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	b.WriteString("guest: execution failed")
	if e.Path != "" {
		fmt.Fprintf(&b, " in %q", e.Path)
	}
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	case e.Value != nil:
		fmt.Fprintf(&b, ": panic: %v", e.Value)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Describe renders err as crash text for the host: the message, followed by
// the stack trace when one was captured.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var ee *ExecutionError
	if errors.As(err, &ee) && ee.Trace != "" {
		return err.Error() + "\n\n" + ee.Trace
	}
	return err.Error()
}

// errorDispatcher is the structural interface of kont error operations
// (Throw, Catch) with error as the failure type.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}

// dispatchError evaluates an error operation eagerly. On Throw it returns
// the thrown error and ok=false; otherwise the value to resume with.
func dispatchError(op errorDispatcher) (kont.Resumed, error, bool) {
	var ctx kont.ErrorContext[error]
	v, _ := op.DispatchError(&ctx)
	if ctx.HasErr {
		err := ctx.Err
		if err == nil {
			err = errors.New("guest: nil error thrown")
		}
		return nil, err, false
	}
	return v, nil, true
}
