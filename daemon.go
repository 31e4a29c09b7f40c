// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"context"
	"net"
	"strconv"

	"github.com/rs/zerolog"
)

// Daemon connects to a host and serves its function calls.
type Daemon struct {
	cfg    Config
	loader Loader
	log    zerolog.Logger
}

// NewDaemon returns a daemon that resolves modules through loader.
func NewDaemon(cfg Config, loader Loader, log zerolog.Logger) *Daemon {
	return &Daemon{cfg: cfg, loader: loader, log: log}
}

// Addr returns the host address for port.
func (d *Daemon) Addr(port int) string {
	return net.JoinHostPort(d.cfg.Host, strconv.Itoa(port))
}

// Run dials the host on port and serves the connection until it ends.
// A dial failure is a *TransportError.
func (d *Daemon) Run(ctx context.Context, port int) error {
	addr := d.Addr(port)
	ch, err := Dial(ctx, addr, d.cfg.ChannelOptions())
	if err != nil {
		d.log.Error().Err(err).Str("addr", addr).Msg("dial failed")
		return err
	}
	return d.Serve(ctx, ch)
}

// Serve drives an already established channel.
func (d *Daemon) Serve(ctx context.Context, ch *Channel) error {
	drv := NewDriver(d.loader, DriverOptions{
		Mode:       d.cfg.Mode,
		BusyPolicy: d.cfg.BusyPolicy,
		QueueLimit: d.cfg.QueueLimit,
		Logger:     d.log,
	})
	return Serve(ctx, ch, drv, d.cfg.Lang, d.log)
}
