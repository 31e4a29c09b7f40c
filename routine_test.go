// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/guest"
)

func TestRoutineDelegates(t *testing.T) {
	skipRace(t)
	s := guest.NewSession()
	r := s.Start(handle(guest.Routine(func(ctx context.Context, exe guest.Exe) (any, error) {
		a, err := exe("first")
		if err != nil {
			return nil, err
		}
		b, err := exe(a)
		if err != nil {
			return nil, err
		}
		return []any{a, b}, nil
	})))
	if r.Kind != guest.StepYielded || r.Value != "first" {
		t.Fatalf("start got %+v, want yielded first", r)
	}
	if r = s.Resume("a"); r.Kind != guest.StepYielded || r.Value != "a" {
		t.Fatalf("resume got %+v, want yielded a", r)
	}
	r = s.Resume("b")
	got, ok := r.Value.([]any)
	if r.Kind != guest.StepFinished || !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("resume got %+v, want finished [a b]", r)
	}
}

func TestRoutineError(t *testing.T) {
	skipRace(t)
	errBoom := errors.New("boom")
	s := guest.NewSession()
	r := s.Start(handle(guest.Routine(func(context.Context, guest.Exe) (any, error) {
		return nil, errBoom
	})))
	if r.Kind != guest.StepFailed || !errors.Is(r.Err, errBoom) {
		t.Fatalf("got %+v, want failed with boom", r)
	}
}

func TestRoutinePanic(t *testing.T) {
	skipRace(t)
	s := guest.NewSession()
	r := s.Start(handle(guest.Routine(func(ctx context.Context, exe guest.Exe) (any, error) {
		if _, err := exe("x"); err != nil {
			return nil, err
		}
		panic("routine panic")
	})))
	if r.Kind != guest.StepYielded {
		t.Fatalf("start got %+v, want yielded", r)
	}
	r = s.Resume(nil)
	var ee *guest.ExecutionError
	if r.Kind != guest.StepFailed || !errors.As(r.Err, &ee) || ee.Value != "routine panic" {
		t.Fatalf("got %+v, want *ExecutionError with routine panic", r)
	}
}

func TestRoutineYieldDone(t *testing.T) {
	skipRace(t)
	exited := make(chan error, 1)
	s := guest.NewSession()
	r := s.Start(handle(guest.Routine(func(ctx context.Context, exe guest.Exe) (any, error) {
		_, err := exe(guest.Done)
		exited <- err
		return nil, err
	})))
	if r.Kind != guest.StepFinished || r.Value != nil {
		t.Fatalf("got %+v, want finished nil", r)
	}
	select {
	case err := <-exited:
		if !errors.Is(err, guest.ErrSessionClosed) {
			t.Fatalf("exe got %v, want ErrSessionClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("routine still blocked after completion")
	}
}

func TestRoutineReleasedOnReset(t *testing.T) {
	skipRace(t)
	exited := make(chan error, 1)
	s := guest.NewSession()
	s.Start(handle(guest.Routine(func(ctx context.Context, exe guest.Exe) (any, error) {
		_, err := exe("waiting")
		exited <- err
		<-ctx.Done()
		return nil, ctx.Err()
	})))
	if s.Status() != guest.StatusAwaitingHostReply {
		t.Fatalf("status got %s, want awaiting_host_reply", s.Status())
	}
	s.Reset()
	select {
	case err := <-exited:
		if !errors.Is(err, guest.ErrSessionClosed) {
			t.Fatalf("exe got %v, want ErrSessionClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("routine still blocked after reset")
	}
}
