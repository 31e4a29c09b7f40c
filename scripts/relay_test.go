// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

package scripts_test

import (
	"testing"

	"code.hybscloud.com/guest"
)

// Relay runs over the lfq SPSC handoff, which the race detector misreports.
func TestRelay(t *testing.T) {
	d := guest.NewDriver(guest.DefaultRegistry, guest.DriverOptions{})
	if m := handle(t, d, guest.CallFunc("relay"), guest.TypeExeDitlang); m.Result != "ready" {
		t.Fatalf("got %v, want ready", m.Result)
	}
	if m := handle(t, d, guest.DitlangCallback("a"), guest.TypeExeDitlang); m.Result != "a" {
		t.Fatalf("got %v, want a", m.Result)
	}
	if m := handle(t, d, guest.DitlangCallback("stop"), guest.TypeFinishFunc); m.Result != 2 {
		t.Fatalf("got %v, want 2", m.Result)
	}
}
