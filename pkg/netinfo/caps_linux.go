//go:build linux

package netinfo

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/vishvananda/netlink"
)

// wolNotes gathers driver-level Wake-on-LAN hints for an interface:
// operational state from netlink, and the "Supports Wake-on" / "Wake-on"
// lines from ethtool when it is installed. Everything here is advisory;
// missing tooling just means fewer notes.
func wolNotes(ifName string) []string {
	var notes []string

	if link, err := netlink.LinkByName(ifName); err == nil {
		attrs := link.Attrs()
		notes = append(notes, fmt.Sprintf("Operational state: %s", attrs.OperState))
		if attrs.EncapType != "" {
			notes = append(notes, fmt.Sprintf("Link type: %s", attrs.EncapType))
		}
	}

	out, err := exec.Command("ethtool", ifName).Output()
	if err != nil {
		return notes
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Supports Wake-on:") || strings.HasPrefix(line, "Wake-on:") {
			notes = append(notes, line)
		}
	}
	return notes
}
