package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bitsmith/api"
)

type Serve struct {
	Addr     string   `name:"addr" help:"Address to listen on. (default from config)" placeholder:"HOST:PORT"`
	GapScale *float64 `name:"gap-scale" help:"Default weight of the holes in /layout."`
	MinWidth *float64 `name:"min-width" help:"Default minimum peripheral width in /layout."`
}

func (s *Serve) Run(a *app) error {
	addr := a.cfg.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}
	opts, err := (&Map{GapScale: s.GapScale, MinWidth: s.MinWidth}).options(a.cfg.Layout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.New(opts).Run(ctx, addr)
}
