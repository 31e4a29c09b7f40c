// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSONCodec implements Codec with one JSON object per line.
// Every line is decoded on its own, so a malformed frame does not poison
// the frames behind it.
type JSONCodec struct {
	rw     io.ReadWriteCloser
	r      *bufio.Reader
	limits Limits
}

// NewJSONCodec creates a JSON codec over rw.
func NewJSONCodec(rw io.ReadWriteCloser, limits Limits) *JSONCodec {
	return &JSONCodec{
		rw:     rw,
		r:      bufio.NewReader(rw),
		limits: limits,
	}
}

// Encode writes msg as a single newline-terminated JSON object.
func (c *JSONCodec) Encode(msg *Message) error {
	data, err := encodeFrame(msg, c.limits, json.Marshal)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = c.rw.Write(data)
	return err
}

// Check reports whether msg fits in one JSON frame.
func (c *JSONCodec) Check(msg *Message) error {
	_, err := encodeFrame(msg, c.limits, json.Marshal)
	return err
}

// Decode reads the next non-blank line into msg.
func (c *JSONCodec) Decode(msg *Message) error {
	for {
		line, err := c.readLine()
		if err != nil {
			if errors.Is(err, ErrFrameTooLarge) {
				return &ProtocolError{Reason: "oversized frame", Err: err}
			}
			return err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var f map[string]any
		if err := json.Unmarshal(line, &f); err != nil {
			return &ProtocolError{Reason: "malformed json frame", Err: err}
		}
		return msg.fromFields(f)
	}
}

// readLine returns one line without enforcing a trailing newline on the
// final frame. Lines beyond the frame limit are consumed and dropped.
func (c *JSONCodec) readLine() ([]byte, error) {
	max := c.limits.maxFrame()
	var line []byte
	dropped := false
	for {
		chunk, err := c.r.ReadSlice('\n')
		if !dropped {
			line = append(line, chunk...)
			if len(line) > max+1 {
				line, dropped = nil, true
			}
		}
		switch {
		case err == nil:
			if dropped {
				return nil, ErrFrameTooLarge
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0:
			return line, nil
		default:
			return nil, err
		}
	}
}

// Close closes the underlying stream.
func (c *JSONCodec) Close() error {
	return c.rw.Close()
}
