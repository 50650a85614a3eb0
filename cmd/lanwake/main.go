package main

import (
	"fmt"
	"os"

	"lanwake-go/pkg/log"

	"github.com/urfave/cli/v2"
)

// Version information - will be set at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	log.SetStd()

	app := &cli.App{
		Name:    "lanwake",
		Usage:   "send and monitor Wake-on-LAN magic packets",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Commands: []*cli.Command{
			sendCommand,
			monitorCommand,
			infoCommand,
			serveCommand,
			ctlCommand,
			logsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
