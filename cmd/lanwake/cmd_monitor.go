package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"lanwake-go/pkg/config"
	"lanwake-go/pkg/log"
	"lanwake-go/pkg/management"
	"lanwake-go/pkg/wol"

	"github.com/urfave/cli/v2"
)

var (
	monitorCommand = &cli.Command{
		Name:      "monitor",
		Usage:     "listen for incoming magic packets",
		UsageText: "lanwake monitor [command options]",
		Description: `Binds the given UDP ports and reports every valid magic packet
received, optionally filtered to a single target MAC address.
Runs until interrupted. A management socket is opened so that
'lanwake ctl' can query or stop the running monitor.`,
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "UDP `PORT` to listen on (repeatable; defaults to 7 and 9)",
			},
			&cli.StringFlag{
				Name:    "mac",
				Aliases: []string{"m"},
				Usage:   "Only report packets targeting this `MAC` address",
			},
			&cli.DurationFlag{
				Name:  "poll-timeout",
				Usage: "Per-socket read `TIMEOUT` of the poll loop",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print received events as JSON lines",
			},
		},
		Action: monitorCmd,
	}
)

func monitorCmd(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading configuration: %v", err), 1)
	}
	log.MustInit("lanwake")
	defer log.Close()

	mcfg := wol.MonitorConfig{
		Ports:       c.IntSlice("port"),
		PollTimeout: c.Duration("poll-timeout"),
	}
	if len(mcfg.Ports) == 0 {
		mcfg.Ports = cfg.MonitorPorts
	}
	if mcfg.PollTimeout == 0 {
		mcfg.PollTimeout = cfg.PollTimeout
	}
	if macFilter := c.String("mac"); macFilter != "" {
		hw, err := wol.ParseMAC(macFilter)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		mcfg.TargetMAC = hw
	}

	session, err := wol.StartMonitor(context.Background(), mcfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error starting monitor: %v", err), 1)
	}

	var (
		mu       sync.Mutex
		received []wol.Event
	)

	mgmt := management.NewServer("lanwake")
	mgmt.RegisterHandler("ports", "List the UDP ports being monitored", func(args []string) (string, error) {
		ports := make([]string, 0, len(session.Ports()))
		for _, p := range session.Ports() {
			ports = append(ports, fmt.Sprintf("%d", p))
		}
		return "OK: monitoring ports " + strings.Join(ports, ", "), nil
	})
	mgmt.RegisterHandler("events", "Show magic packets received so far", func(args []string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(received) == 0 {
			return "OK: no magic packets received yet", nil
		}
		var sb strings.Builder
		for _, ev := range received {
			fmt.Fprintf(&sb, "%s  port=%d  mac=%s  from=%s:%d\n",
				ev.Time.Format("2006-01-02 15:04:05"), ev.Port, ev.MACText, ev.SourceIP, ev.SourcePort)
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	})
	mgmt.RegisterHandler("stop", "Stop the monitor and exit", func(args []string) (string, error) {
		go session.Stop()
		return "OK: stopping", nil
	})
	if err := mgmt.Start(); err != nil {
		log.Warn().Err(err).Msg("management socket unavailable, ctl commands disabled")
	} else {
		defer mgmt.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %s, shutting down.", sig)
		session.Stop()
	}()

	log.Printf("monitoring ports %v. Press Ctrl+C to stop.", session.Ports())

	asJSON := c.Bool("json")
	for ev := range session.Events() {
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()

		if asJSON {
			line, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Println(string(line))
		} else {
			fmt.Printf("[%s] magic packet for %s on port %d from %s:%d (%d bytes)\n",
				ev.Time.Format("15:04:05"), ev.MACText, ev.Port, ev.SourceIP, ev.SourcePort, ev.PacketLen)
		}
	}

	<-session.Done()
	log.Printf("monitor has been shut down.")
	return nil
}
