package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lanwake-go/pkg/api"
	"lanwake-go/pkg/config"
	"lanwake-go/pkg/log"

	"github.com/urfave/cli/v2"
)

var (
	serveCommand = &cli.Command{
		Name:      "serve",
		Usage:     "run the HTTP API server",
		UsageText: "lanwake serve [command options]",
		Description: `Starts an HTTP server exposing the wake, monitor, network-info and
log operations as a JSON API, plus Prometheus metrics on /metrics.
Runs until interrupted.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Listen `ADDRESS` for the HTTP server (overrides configuration)",
			},
		},
		Action: serveCmd,
	}
)

func serveCmd(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading configuration: %v", err), 1)
	}
	if listen := c.String("listen"); listen != "" {
		cfg.APIListenAddr = listen
	}
	log.MustInit("lanwake")
	defer log.Close()

	srv := api.NewServer(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %s, shutting down gracefully...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Printf("API server listening on %s. Press Ctrl+C to stop.", cfg.APIListenAddr)
	if err := srv.Run(); err != nil && err != http.ErrServerClosed {
		return cli.Exit(fmt.Sprintf("Error running API server: %v", err), 1)
	}
	log.Printf("API server has been shut down.")
	return nil
}
