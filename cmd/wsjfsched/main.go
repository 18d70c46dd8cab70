// Command wsjfsched runs Core B, the WSJF priority scheduler described in
// SPEC_FULL.md.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/ShuntaSakai/wsjfproxy/internal/config"
	"github.com/ShuntaSakai/wsjfproxy/internal/logging"
	"github.com/ShuntaSakai/wsjfproxy/internal/metrics"
	"github.com/ShuntaSakai/wsjfproxy/internal/wsjf"
)

func main() {
	cfg, err := config.LoadWSJFScheduler()
	if err != nil {
		println("wsjfsched: " + err.Error())
		os.Exit(1)
	}

	instanceID := uuid.NewString()
	log := logging.New(cfg.LogLevel, instanceID)
	m, reg := metrics.NewWSJF()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Error("listen failed", "addr", cfg.ListenAddr, "err", err)
		os.Exit(1)
	}
	log.Info("listening", "addr", cfg.ListenAddr, "backend", cfg.BackendAddr)

	go func() {
		if err := metrics.Serve(cfg.MetricsAddr, reg); err != nil {
			log.Warn("metrics server stopped", "err", err)
		}
	}()

	srv := wsjf.NewServer(cfg, m, log)
	if err := srv.Serve(ctx, ln); err != nil {
		log.Error("serve stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shut down")
}
