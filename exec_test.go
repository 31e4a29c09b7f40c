// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest_test

import (
	"context"
	"errors"
	"testing"

	"code.hybscloud.com/guest"
	"code.hybscloud.com/kont"
)

func TestExecCallable(t *testing.T) {
	v, err := guest.Exec(handle(guest.Callable(func() (any, error) { return "result", nil })))
	if err != nil || v != "result" {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestExecCoroutineWithoutDelegation(t *testing.T) {
	v, err := guest.Exec(handle(guest.Coroutine(func() kont.Eff[any] {
		return kont.Bind(guest.Finish(20), func(n any) kont.Eff[any] {
			return guest.Finish(n.(int) + 22)
		})
	})))
	if err != nil || v != 42 {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestExecDelegationFails(t *testing.T) {
	_, err := guest.Exec(handle(yieldThenReturn("X", "Y")))
	if !errors.Is(err, guest.ErrDelegationInJobMode) {
		t.Fatalf("got %v, want ErrDelegationInJobMode", err)
	}
}

func TestExecRoutineDelegationReleases(t *testing.T) {
	skipRace(t)
	exited := make(chan error, 1)
	_, err := guest.Exec(handle(guest.Routine(func(_ context.Context, exe guest.Exe) (any, error) {
		_, err := exe("X")
		exited <- err
		return nil, err
	})))
	if !errors.Is(err, guest.ErrDelegationInJobMode) {
		t.Fatalf("got %v, want ErrDelegationInJobMode", err)
	}
	if err := <-exited; !errors.Is(err, guest.ErrSessionClosed) {
		t.Fatalf("exe got %v, want ErrSessionClosed", err)
	}
}

func TestExecSentinel(t *testing.T) {
	v, err := guest.Exec(handle(guest.Callable(func() (any, error) { return guest.Done, nil })))
	if err != nil || v != nil {
		t.Fatalf("got %v, %v, want nil result", v, err)
	}
}
