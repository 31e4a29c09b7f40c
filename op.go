// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"code.hybscloud.com/kont"
)

// Reply is the value a delegation resumes with: the result carried by the
// host's ditlang_callback. Resumptions are always non-nil Reply values,
// so a host answering null is distinct from completion.
type Reply struct {
	Value any
}

// Delegation is the effect operation for handing a value to the host.
// Perform(Delegation{Value: v}) suspends the script, the daemon emits
// exe_ditlang{v}, and the script resumes with the host's [Reply].
type Delegation struct {
	kont.Phantom[Reply]
	Value any
}

// sentinel is the type of [Done]. It is unexported so no decoded wire
// value and no script value of another type can be equal to Done.
type sentinel struct{}

// Done is the no-more-work sentinel. A script that delegates or returns
// Done finishes its session with a null result.
var Done any = sentinel{}

// IsDone reports whether v is the [Done] sentinel.
func IsDone(v any) bool {
	_, ok := v.(sentinel)
	return ok
}

// Delegate performs a Delegation of v.
func Delegate(v any) kont.Eff[Reply] {
	return kont.Perform(Delegation{Value: v})
}
