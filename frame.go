// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"encoding/binary"
	"errors"
	"io"
)

// frameHeaderLen is the length prefix of binary frames.
const frameHeaderLen = 4

// DefaultMaxFrameBytes bounds one frame's payload.
const DefaultMaxFrameBytes = 8 * 1024 * 1024

// Limits constrains codec memory use.
type Limits struct {
	MaxFrameBytes int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxFrameBytes: DefaultMaxFrameBytes}
}

func (l Limits) maxFrame() int {
	if l.MaxFrameBytes <= 0 {
		return DefaultMaxFrameBytes
	}
	return l.MaxFrameBytes
}

// readFrame reads one length-prefixed frame. An oversized frame is skipped
// and reported as ErrFrameTooLarge so the stream stays aligned; io errors
// are returned as is.
func readFrame(r io.Reader, limits Limits) ([]byte, error) {
	var hdr [frameHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if uint64(n) > uint64(limits.maxFrame()) {
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return nil, err
		}
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return payload, nil
}

// writeFrame writes payload behind its length prefix in a single write.
func writeFrame(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) > limits.maxFrame() {
		return ErrFrameTooLarge
	}
	buf := make([]byte, frameHeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf[:frameHeaderLen], uint32(len(payload)))
	copy(buf[frameHeaderLen:], payload)
	_, err := w.Write(buf)
	return err
}
