// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("guest: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	// Nested maps decode with string keys so results can be re-encoded as
	// JSON by whatever consumes them.
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("guest: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// CBORCodec implements Codec with canonical CBOR maps behind a 4-byte
// big-endian length prefix.
type CBORCodec struct {
	rw     io.ReadWriteCloser
	limits Limits
}

// NewCBORCodec creates a CBOR codec over rw.
func NewCBORCodec(rw io.ReadWriteCloser, limits Limits) *CBORCodec {
	return &CBORCodec{rw: rw, limits: limits}
}

// Encode writes msg as one frame.
func (c *CBORCodec) Encode(msg *Message) error {
	data, err := encodeFrame(msg, c.limits, cborEncMode.Marshal)
	if err != nil {
		return err
	}
	return writeFrame(c.rw, data, c.limits)
}

// Check reports whether msg fits in one CBOR frame.
func (c *CBORCodec) Check(msg *Message) error {
	_, err := encodeFrame(msg, c.limits, cborEncMode.Marshal)
	return err
}

// Decode reads one frame into msg.
func (c *CBORCodec) Decode(msg *Message) error {
	payload, err := readFrame(c.rw, c.limits)
	if err != nil {
		if errors.Is(err, ErrFrameTooLarge) {
			return &ProtocolError{Reason: "oversized frame", Err: err}
		}
		return err
	}
	var f map[string]any
	if err := cborDecMode.Unmarshal(payload, &f); err != nil {
		return &ProtocolError{Reason: "malformed cbor frame", Err: err}
	}
	return msg.fromFields(f)
}

// Close closes the underlying stream.
func (c *CBORCodec) Close() error {
	return c.rw.Close()
}
