// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scripts registers the modules compiled into guestd.
//
// Importing it for side effects adds them to [guest.DefaultRegistry].
package scripts

import (
	"context"
	"fmt"
	"runtime"

	"code.hybscloud.com/guest"
	"code.hybscloud.com/kont"
)

func init() {
	guest.Register("echo_module", Echo)
	guest.Register("relay", Relay)
	guest.Register("countdown", Countdown)
	guest.Register("runtime_info", RuntimeInfo)
}

// Echo delegates "ping" and finishes with whatever the host answered.
func Echo() (guest.Entry, error) {
	return guest.Coroutine(func() kont.Eff[any] {
		return guest.DelegateBind("ping", func(reply any) kont.Eff[any] {
			return guest.Finish(reply)
		})
	}), nil
}

// Relay hands every host reply straight back until the host answers "stop"
// or null, then finishes with the number of round trips.
func Relay() (guest.Entry, error) {
	return guest.Routine(func(ctx context.Context, exe guest.Exe) (any, error) {
		v := any("ready")
		for n := 0; ; n++ {
			reply, err := exe(v)
			if err != nil {
				return nil, err
			}
			if reply == nil || reply == "stop" {
				return n + 1, nil
			}
			v = reply
		}
	}), nil
}

// Countdown delegates 3, 2, 1 and then returns the no-more-work sentinel.
func Countdown() (guest.Entry, error) {
	return guest.Coroutine(func() kont.Eff[any] {
		return guest.Loop(3, func(n int) kont.Eff[kont.Either[int, any]] {
			return guest.DelegateBind(n, func(any) kont.Eff[kont.Either[int, any]] {
				if n == 1 {
					return kont.Pure(kont.Right[int, any](guest.Done))
				}
				return kont.Pure(kont.Left[int, any](n - 1))
			})
		})
	}), nil
}

// RuntimeInfo reports the Go version and platform without delegating.
func RuntimeInfo() (guest.Entry, error) {
	return guest.Callable(func() (any, error) {
		return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH), nil
	}), nil
}
