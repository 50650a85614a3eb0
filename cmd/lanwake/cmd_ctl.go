package main

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"

	"lanwake-go/pkg/management"

	"github.com/urfave/cli/v2"
)

var (
	ctlCommand = &cli.Command{
		Name:      "ctl",
		Usage:     "control a running monitor via its management socket",
		UsageText: "lanwake ctl <command> [args...]",
		Description: `Sends a command to the management socket of a running
'lanwake monitor' process. Use 'lanwake ctl help' to list the
commands the daemon understands.`,
		Action: ctlCmd,
	}
)

func ctl(command string) {
	mgmt := management.NewClient("lanwake")
	if !mgmt.IsServerStarted() {
		stdlog.Fatalf("no running monitor found at %s", management.GetDefaultSocketPath("lanwake"))
	}
	res, err := mgmt.SendCommand(command)
	if err != nil {
		stdlog.Fatalf("%v", err)
	}
	fmt.Println(res)
	os.Exit(0)
}

func ctlCmd(c *cli.Context) error {
	s := strings.Join(c.Args().Slice(), " ")
	if s == "" {
		s = "status"
	}
	ctl(s)
	return nil
}
