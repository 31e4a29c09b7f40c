// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Mode selects how call_func is served.
type Mode string

const (
	// ModeCoroutine runs sessions with delegation round-trips.
	ModeCoroutine Mode = "coroutine"
	// ModeJob runs each call to completion and answers with a job message.
	ModeJob Mode = "job"
)

// BusyPolicy selects what happens to a call_func that arrives while a
// session is in flight.
type BusyPolicy string

const (
	// BusyReject answers with a crash and leaves the in-flight session alone.
	BusyReject BusyPolicy = "reject"
	// BusyQueue starts the call once the in-flight session has ended.
	BusyQueue BusyPolicy = "queue"
)

// DefaultQueueLimit bounds queued call_func requests under BusyQueue.
const DefaultQueueLimit = 16

// DriverOptions configures a [Driver].
type DriverOptions struct {
	Mode       Mode
	BusyPolicy BusyPolicy
	QueueLimit int
	Logger     zerolog.Logger

	// Check vets each result-bearing outbound message before it leaves
	// the driver. A rejected yield or finish crashes the session. Nil
	// accepts everything.
	Check func(*Message) error
}

// Driver is the protocol state machine for one connection. It advances
// only when handed an inbound message and never waits on the host.
//
// A driver is not safe for concurrent use.
type Driver struct {
	loader  Loader
	session *Session
	opts    DriverOptions
	pending []string
	log     zerolog.Logger
}

// NewDriver returns a driver with an idle session.
func NewDriver(loader Loader, opts DriverOptions) *Driver {
	if opts.Mode == "" {
		opts.Mode = ModeCoroutine
	}
	if opts.BusyPolicy == "" {
		opts.BusyPolicy = BusyReject
	}
	if opts.QueueLimit <= 0 {
		opts.QueueLimit = DefaultQueueLimit
	}
	return &Driver{
		loader:  loader,
		session: NewSession(),
		opts:    opts,
		log:     opts.Logger,
	}
}

// Session returns the driver's session.
func (d *Driver) Session() *Session { return d.session }

// Pending returns the number of queued call_func requests.
func (d *Driver) Pending() int { return len(d.pending) }

// Handle consumes one inbound message and returns the messages to send, in
// order. stop is true for the explicit close signal.
func (d *Driver) Handle(msg *Message) (out []*Message, stop bool) {
	if !msg.Type.Inbound() {
		return d.violation(protocolErrorf("unexpected %s from host", msg.Type)), false
	}
	switch msg.Type {
	case TypeCallFunc:
		return d.callFunc(msg.FuncPath), false
	case TypeDitlangCallback:
		return d.callback(msg.Result), false
	case TypeClose:
		d.log.Debug().Msg("close requested by host")
		return nil, true
	}
	return nil, false
}

// Fault reports a frame that could not be decoded, or an outbound message
// that could not be encoded. The session is reset.
func (d *Driver) Fault(err error) []*Message {
	return d.violation(err)
}

// Close releases the session and drops queued calls.
func (d *Driver) Close() {
	d.pending = nil
	d.session.Reset()
}

func (d *Driver) callFunc(path string) []*Message {
	if d.opts.Mode == ModeJob {
		return []*Message{d.job(path)}
	}
	if st := d.session.Status(); st.Busy() {
		if d.opts.BusyPolicy == BusyQueue && len(d.pending) < d.opts.QueueLimit {
			d.pending = append(d.pending, path)
			d.log.Debug().Str("path", path).Int("pending", len(d.pending)).Msg("call_func queued")
			return nil
		}
		err := &ProtocolError{
			Reason: fmt.Sprintf("call_func %q while %q is %s", path, d.session.Handle().Path, st),
			Err:    ErrSessionBusy,
		}
		d.log.Warn().Err(err).Msg("call_func rejected")
		return []*Message{CrashReport(Describe(err))}
	}
	return d.start(path)
}

func (d *Driver) start(path string) []*Message {
	h, err := d.loader.Load(path)
	if err != nil {
		d.session.Reset()
		d.log.Warn().Err(err).Str("path", path).Msg("load failed")
		return append([]*Message{CrashReport(Describe(err))}, d.drain()...)
	}
	r := d.session.Start(h)
	d.log.Debug().Str("path", path).Stringer("kind", h.Kind()).
		Uint32("serial", d.session.Serial()).Msg("session started")
	return d.emit(r)
}

func (d *Driver) callback(v any) []*Message {
	if d.opts.Mode == ModeJob || d.session.Status() != StatusAwaitingHostReply {
		return d.violation(&ProtocolError{
			Reason: fmt.Sprintf("ditlang_callback while %s", d.session.Status()),
			Err:    ErrNotAwaiting,
		})
	}
	return d.emit(d.session.Resume(v))
}

// emit turns a step outcome into outbound messages. A terminal outcome
// lets the next queued call start.
func (d *Driver) emit(r StepResult) []*Message {
	serial := d.session.Serial()
	switch r.Kind {
	case StepYielded:
		msg := ExeDitlang(r.Value)
		if err := d.check(msg); err != nil {
			r = d.session.abort(err)
			break
		}
		d.log.Debug().Uint32("serial", serial).Msg("exe_ditlang")
		return []*Message{msg}
	case StepFinished:
		msg := FinishFunc(r.Value)
		if err := d.check(msg); err != nil {
			r = d.session.abort(err)
			break
		}
		d.log.Info().Uint32("serial", serial).Msg("session completed")
		return append([]*Message{msg}, d.drain()...)
	}
	d.log.Warn().Uint32("serial", serial).Err(r.Err).Msg("session crashed")
	return append([]*Message{CrashReport(Describe(r.Err))}, d.drain()...)
}

func (d *Driver) check(msg *Message) error {
	if d.opts.Check == nil {
		return nil
	}
	return d.opts.Check(msg)
}

// violation reports err as a crash and resets the session.
func (d *Driver) violation(err error) []*Message {
	d.log.Warn().Err(err).Stringer("status", d.session.Status()).Msg("protocol violation")
	d.session.Reset()
	return append([]*Message{CrashReport(Describe(err))}, d.drain()...)
}

func (d *Driver) drain() []*Message {
	if len(d.pending) == 0 || d.session.Status().Busy() {
		return nil
	}
	path := d.pending[0]
	d.pending = d.pending[1:]
	return d.start(path)
}

func (d *Driver) job(path string) *Message {
	h, err := d.loader.Load(path)
	if err == nil {
		var v any
		if v, err = Exec(h); err == nil {
			m := Job(false, v)
			if err = d.check(m); err == nil {
				d.log.Info().Str("path", path).Msg("job completed")
				return m
			}
			err = &ExecutionError{Path: path, Err: err}
		}
	}
	d.log.Warn().Err(err).Str("path", path).Msg("job crashed")
	return Job(true, Describe(err))
}
