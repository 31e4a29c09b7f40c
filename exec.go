// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

// Exec runs h to completion on a fresh session without a host round-trip.
// A delegation fails with an *ExecutionError wrapping ErrDelegationInJobMode.
func Exec(h *FunctionHandle) (any, error) {
	s := NewSession()
	defer s.Reset()
	r := s.Start(h)
	switch r.Kind {
	case StepFinished:
		return r.Value, nil
	case StepYielded:
		return nil, &ExecutionError{Path: h.Path, Err: ErrDelegationInJobMode}
	default:
		return nil, r.Err
	}
}
