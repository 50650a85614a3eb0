package main

import (
	"encoding/json"
	"fmt"

	"lanwake-go/pkg/config"
	"lanwake-go/pkg/netinfo"
	"lanwake-go/pkg/wol"

	"github.com/urfave/cli/v2"
)

var (
	sendCommand = &cli.Command{
		Name:      "send",
		Usage:     "send a magic packet to wake a machine",
		UsageText: "lanwake send [command options] <mac-address|machine-name>",
		Description: `Builds a 102-byte magic packet for the given MAC address and
broadcasts it over UDP. A name from the machines section of the
configuration file can be given instead of a raw MAC address.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "broadcast",
				Aliases: []string{"b"},
				Usage:   "Broadcast `ADDRESS` to send to",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Destination UDP `PORT`",
			},
			&cli.BoolFlag{
				Name:  "probe",
				Usage: "Wait briefly for a UDP response after sending (diagnostic only)",
			},
			&cli.BoolFlag{
				Name:  "auto-broadcast",
				Usage: "Derive the broadcast address from the default route interface",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print the send report as JSON instead of text",
			},
		},
		Action: sendCmd,
	}
)

func sendCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Error: exactly one MAC address or machine name is required.", 1)
	}
	target := c.Args().First()
	broadcast := c.String("broadcast")
	port := c.Int("port")

	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading configuration: %v", err), 1)
	}

	mac := target
	if m, ok := cfg.FindMachine(target); ok {
		mac = m.MAC
		if broadcast == "" {
			broadcast = m.Broadcast
		}
		if port == 0 {
			port = m.Port
		}
	}
	if broadcast == "" {
		broadcast = cfg.Broadcast
	}
	if port == 0 {
		port = cfg.Port
	}
	if c.Bool("auto-broadcast") {
		broadcast = netinfo.DefaultBroadcast()
	}

	var report *wol.SendReport
	if c.Bool("probe") {
		report, err = wol.SendAndProbe(mac, broadcast, port)
	} else {
		report, err = wol.Send(mac, broadcast, port)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error sending magic packet: %v", err), 1)
	}

	if c.Bool("json") {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error encoding report: %v", err), 1)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Sent %d bytes to %s:%d for MAC %s\n",
		report.BytesSent, report.Broadcast, report.Port, report.MAC)
	fmt.Printf("  sync stream:    %s\n", report.SyncStream)
	fmt.Printf("  first MAC copy: %s\n", report.FirstCopy)
	if report.Response != nil {
		fmt.Printf("  response from %s: %s\n", report.Response.From, report.Response.Payload)
	} else if c.Bool("probe") {
		fmt.Println("  no response received (normal for sleeping machines)")
	}
	return nil
}
