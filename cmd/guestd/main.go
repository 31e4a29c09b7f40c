// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command guestd connects to a host orchestrator on 127.0.0.1:<port> and
// serves function calls for the modules compiled into it or loaded as
// plugins.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"code.hybscloud.com/guest"
	_ "code.hybscloud.com/guest/scripts"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("guestd", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv(guest.EnvConfig), "path to TOML config file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: guestd [-config path] <port>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	port, err := strconv.Atoi(fs.Arg(0))
	if err != nil || port <= 0 || port > 65535 {
		fmt.Fprintf(os.Stderr, "guestd: invalid port %q\n", fs.Arg(0))
		return 2
	}

	cfg, err := guest.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "guestd: %v\n", err)
		return 2
	}
	log := guest.NewLogger(cfg.Log, os.Stderr)
	guest.DefaultRegistry.UsePlugins(cfg.PluginLoader())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := guest.NewDaemon(cfg, guest.DefaultRegistry, log)
	if err := d.Run(ctx, port); err != nil {
		fmt.Fprintf(os.Stderr, "guestd: %v\n", err)
		return 1
	}
	return 0
}
