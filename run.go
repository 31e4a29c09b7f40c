// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Serve announces lang on ch and drives d until the host disconnects, sends
// close, or ctx is done. It closes ch and d before returning.
//
// Only a failed announcement is an error. Peer EOF, close and context
// cancellation return nil. A frame that cannot be decoded, or a result that
// cannot be encoded, is reported to the host as a crash and the loop
// continues. Unless d already has a Check, results are vetted against ch's
// codec before they leave the driver.
func Serve(ctx context.Context, ch *Channel, d *Driver, lang string, log zerolog.Logger) error {
	log = log.With().Str("conn", uuid.NewString()).Str("remote", ch.Remote()).Logger()
	if d.opts.Check == nil {
		d.opts.Check = ch.Check
	}
	stop := context.AfterFunc(ctx, func() { ch.Close() })
	defer stop()
	defer ch.Close()
	defer d.Close()

	if err := ch.Send(Connect(lang)); err != nil {
		return &TransportError{Op: "connect", Addr: ch.Remote(), Err: err}
	}
	log.Info().Str("lang", lang).Msg("connected")

	for {
		var msg Message
		err := ch.Receive(&msg)
		var out []*Message
		var done bool
		switch {
		case err == nil:
			log.Debug().Stringer("msg", &msg).Msg("received")
			out, done = d.Handle(&msg)
		case isProtocolError(err):
			out = d.Fault(err)
		case ctx.Err() != nil:
			log.Info().Msg("shutdown requested")
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			log.Info().Msg("host disconnected")
			return nil
		default:
			log.Error().Err(err).Msg("receive failed")
			return nil
		}
		for i := 0; i < len(out); i++ {
			m := out[i]
			err := ch.Send(m)
			switch {
			case err == nil:
			case isEncodeError(err):
				log.Warn().Err(err).Str("type", string(m.Type)).Msg("undeliverable message")
				if m.Type != TypeCrash {
					out = append(out, d.Fault(err)...)
				}
			default:
				if ctx.Err() == nil {
					log.Error().Err(err).Stringer("msg", m).Msg("send failed")
				}
				return nil
			}
		}
		if done {
			log.Info().Msg("closed by host")
			return nil
		}
	}
}

func isEncodeError(err error) bool {
	return errors.Is(err, ErrUnencodable) || errors.Is(err, ErrFrameTooLarge)
}

func isProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
