// Command slotproxy runs Core A, the slowloris-resistant slot admission
// proxy described in SPEC_FULL.md.
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
	"github.com/ShuntaSakai/wsjfproxy/internal/slotproxy"
)

func main() {
	cfg, err := config.LoadSlotProxy()
	if err != nil {
		println("slotproxy: " + err.Error())
		os.Exit(1)
	}

	instanceID := uuid.NewString()
	log := logging.New(cfg.LogLevel, instanceID)
	m, reg := metrics.NewSlotProxy()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Error("listen failed", "addr", cfg.ListenAddr, "err", err)
		os.Exit(1)
	}
	log.Info("listening", "addr", cfg.ListenAddr, "backend", cfg.BackendAddr, "score_mode", cfg.ScoreMode, "max_slots", cfg.MaxSlots)

	go func() {
		if err := metrics.Serve(cfg.MetricsAddr, reg); err != nil {
			log.Warn("metrics server stopped", "err", err)
		}
	}()

	srv := slotproxy.NewServer(cfg, m, log)
	if err := srv.Serve(ctx, ln); err != nil {
		log.Error("serve stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shut down")
}
