package main

import (
	"encoding/json"
	"fmt"

	"lanwake-go/pkg/netinfo"

	"github.com/urfave/cli/v2"
)

var (
	infoCommand = &cli.Command{
		Name:      "info",
		Usage:     "show network interfaces and their Wake-on-LAN details",
		UsageText: "lanwake info [command options]",
		Description: `Collects the system's network interfaces with their MAC, IPv4 and
broadcast addresses plus Wake-on-LAN capability notes where the
platform exposes them, and prints the report as JSON.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "save",
				Aliases: []string{"s"},
				Usage:   "Also write the report to the snapshot file under ~/.lanwake",
			},
		},
		Action: infoCmd,
	}
)

func infoCmd(c *cli.Context) error {
	report, err := netinfo.Collect()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error collecting network information: %v", err), 1)
	}

	out, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error encoding report: %v", err), 1)
	}
	fmt.Println(string(out))

	if c.Bool("save") {
		file, err := netinfo.WriteSnapshot(report)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error writing snapshot: %v", err), 1)
		}
		fmt.Printf("Snapshot written to %s\n", file)
	}
	return nil
}
