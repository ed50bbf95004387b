package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// Entry point for the pushminder button daemon.
func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfgMgr := NewConfigManager(configPathFromEnv())
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	hal, err := newHAL()
	if err != nil {
		log.Fatalf("initialisation error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(cfgMgr, hal)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
