package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/nexxt/connect/internal/api"
	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/pkg/utils"
	"github.com/thejerf/suture/v4"
)

// Start the API server and the similarity refresher under one supervisor
func main() {
	// Load global config
	cfg := utils.NewConfigFromEnv(utils.EnvFile())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := deps.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("[MAIN]: Failed to initialize dependencies: %v", err)
	}

	shutdownTimeout := cfg.GetDurationWithDefault("API_SHUTDOWN_TIMEOUT", 15*time.Second)
	supervisor := suture.New("connect", suture.Spec{
		EventHook: func(e suture.Event) { log.Printf("[SUPERVISOR]: %s", e) },
		Timeout:   shutdownTimeout,
	})
	supervisor.Add(api.NewServer(d))
	supervisor.Add(d.Refresher)

	log.Println("[MAIN]: Starting services")
	if err := supervisor.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[MAIN]: Supervisor stopped: %v", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.Close(closeCtx); err != nil {
		log.Printf("[MAIN]: Failed to close stores: %v", err)
	}
	log.Println("[MAIN]: Shut down")
}
