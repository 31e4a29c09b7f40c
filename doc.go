// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package guest is a guest-language runtime daemon. It connects to a host
// orchestrator over TCP, loads the modules the host names, runs their entry
// points as resumable sessions, and forwards each delegation to the host,
// resuming the script with the host's answer.
//
// # Architecture
//
//   - Scripts: algebraic effects on [code.hybscloud.com/kont]. A script
//     performs [Delegate] and is suspended until the host replies.
//   - Sessions: [Session] steps one script at a time. [StepResult] carries an
//     explicit kind, so a script may yield any value; [Done] is the only
//     value that ends a session from a yield.
//   - Routines: direct-style [Routine] entries run on their own goroutine and
//     hand off through bounded SPSC queues from [code.hybscloud.com/lfq].
//   - Protocol: [Driver] consumes one inbound [Message] and returns the
//     messages to send. It never waits on the host.
//   - Transport: [Channel] frames messages as newline-delimited JSON or
//     length-prefixed CBOR.
//
// # API Topologies
//
//   - Entries: [Coroutine], [ExprCoroutine], [Routine], [Callable].
//   - Cont-world: [Delegate], [DelegateThen], [DelegateBind], [Finish], [Fail], [Converse], [Loop].
//   - Expr-world: [ExprDelegateThen], [ExprDelegateBind], [ExprFinish]. Bridge via [Reify] and [Reflect].
//   - Modules: [Register] into [DefaultRegistry], or Go plugins via [PluginLoader].
//
// # Example
//
//	func init() {
//		guest.Register("echo_module", func() (guest.Entry, error) {
//			return guest.Coroutine(func() kont.Eff[any] {
//				return guest.DelegateBind("ping", func(r any) kont.Eff[any] {
//					return guest.Finish(r)
//				})
//			}), nil
//		})
//	}
package guest
