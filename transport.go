// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"context"
	"io"
	"net"
	"sync"
	"time"
)

// DefaultDialTimeout bounds the initial connect.
const DefaultDialTimeout = 5 * time.Second

// ChannelOptions configures a [Channel].
type ChannelOptions struct {
	Codec       string
	Limits      Limits
	DialTimeout time.Duration
}

// Channel is the duplex connection to the host. Frames are delivered in
// arrival order; ordering and reliability come from the stream underneath.
//
// Receive must be called from a single goroutine. Send and Close are safe
// for concurrent use.
type Channel struct {
	codec     Codec
	remote    string
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the host at addr once. Failure is a *TransportError;
// there is no retry.
func Dial(ctx context.Context, addr string, opts ChannelOptions) (*Channel, error) {
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{Op: "dial", Addr: addr, Err: err}
	}
	ch, err := NewChannel(conn, opts)
	if err != nil {
		conn.Close()
		return nil, &TransportError{Op: "dial", Addr: addr, Err: err}
	}
	ch.remote = addr
	return ch, nil
}

// NewChannel wraps an established stream.
func NewChannel(rwc io.ReadWriteCloser, opts ChannelOptions) (*Channel, error) {
	limits := opts.Limits
	if limits.MaxFrameBytes <= 0 {
		limits = DefaultLimits()
	}
	codec, err := NewCodec(opts.Codec, rwc, limits)
	if err != nil {
		return nil, err
	}
	remote := ""
	if conn, ok := rwc.(net.Conn); ok && conn.RemoteAddr() != nil {
		remote = conn.RemoteAddr().String()
	}
	return &Channel{codec: codec, remote: remote}, nil
}

// Remote returns the host address, if known.
func (c *Channel) Remote() string { return c.remote }

// Send encodes and writes msg.
func (c *Channel) Send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codec.Encode(msg)
}

// Check reports whether msg can be sent as one frame.
func (c *Channel) Check(msg *Message) error {
	return c.codec.Check(msg)
}

// Receive reads the next frame into msg. A malformed frame is a
// *ProtocolError and the channel remains usable.
func (c *Channel) Receive(msg *Message) error {
	return c.codec.Decode(msg)
}

// Close closes the connection. It is idempotent.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.codec.Close()
	})
	return c.closeErr
}
