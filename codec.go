// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"fmt"
	"io"
	"strings"
)

// Codec formats.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Codec encodes and decodes protocol messages over a byte stream, framing
// included.
//
// Decode returns a *ProtocolError for a frame that was read in full but is
// malformed; the codec stays usable and the next Decode reads the next
// frame. Any other error comes from the underlying stream.
type Codec interface {
	// Encode writes one frame. A message that cannot be framed fails with
	// an error wrapping ErrUnencodable or ErrFrameTooLarge and nothing is
	// written.
	Encode(msg *Message) error

	// Check reports the error Encode would return for msg without
	// writing anything.
	Check(msg *Message) error

	// Decode reads one frame into msg.
	Decode(msg *Message) error

	// Close closes the underlying stream.
	Close() error
}

// NewCodec creates a codec for format over rw.
func NewCodec(format string, rw io.ReadWriteCloser, limits Limits) (Codec, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONCodec(rw, limits), nil
	case FormatCBOR:
		return NewCBORCodec(rw, limits), nil
	default:
		return nil, fmt.Errorf("guest: unsupported codec format: %s", format)
	}
}

// encodeFrame marshals msg within limits. Crash text that does not fit is
// cut down until it does; any other oversized message fails.
func encodeFrame(msg *Message, limits Limits, marshal func(any) ([]byte, error)) ([]byte, error) {
	f := msg.fields()
	data, err := marshal(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s result: %v", ErrUnencodable, msg.Type, err)
	}
	max := limits.maxFrame()
	if msg.Type == TypeCrash {
		text, _ := f[fieldResult].(string)
		for len(data) > max && text != "" {
			text = strings.ToValidUTF8(text[:len(text)/2], "")
			f[fieldResult] = text
			if data, err = marshal(f); err != nil {
				return nil, fmt.Errorf("%w: %s result: %v", ErrUnencodable, msg.Type, err)
			}
		}
	}
	if len(data) > max {
		return nil, fmt.Errorf("%w: %s of %d bytes exceeds %d", ErrFrameTooLarge, msg.Type, len(data), max)
	}
	return data, nil
}
