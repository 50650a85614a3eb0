// Package netinfo discovers local network interfaces and the details
// needed to aim a Wake-on-LAN packet: MAC, IPv4 address, subnet broadcast
// address, link state, and whatever WoL-capability notes the platform can
// provide.
package netinfo

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path"
	"runtime"

	"lanwake-go/pkg/appdir"

	"github.com/jackpal/gateway"
)

// NotAvailable is the placeholder used when an interface lacks a MAC or
// an IPv4 address.
const NotAvailable = "N/A"

// SnapshotFile is the name of the persisted discovery snapshot under the
// app directory.
const SnapshotFile = "wol_config.json"

type SystemInfo struct {
	OS           string `json:"os"`
	ComputerName string `json:"computer_name"`
}

type Interface struct {
	Name      string   `json:"name"`
	MAC       string   `json:"mac_address"`
	IPv4      string   `json:"ipv4_address"`
	Broadcast string   `json:"broadcast_address,omitempty"`
	IsUp      bool     `json:"is_up"`
	WOLNotes  []string `json:"wol_config_notes,omitempty"`
}

// Report is the full discovery snapshot.
type Report struct {
	System     SystemInfo  `json:"system"`
	Interfaces []Interface `json:"network_interfaces"`
}

// Collect enumerates all interfaces. Per-interface failures degrade to
// N/A fields rather than failing the whole report.
func Collect() (*Report, error) {
	hostname, _ := os.Hostname()
	report := &Report{
		System: SystemInfo{OS: runtime.GOOS, ComputerName: hostname},
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("netinfo: list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		info := Interface{
			Name: iface.Name,
			MAC:  NotAvailable,
			IPv4: NotAvailable,
			IsUp: iface.Flags&net.FlagUp != 0,
		}
		if len(iface.HardwareAddr) > 0 {
			info.MAC = iface.HardwareAddr.String()
		}

		if addrs, err := iface.Addrs(); err == nil {
			for _, addr := range addrs {
				ipNet, ok := addr.(*net.IPNet)
				if !ok || ipNet.IP.To4() == nil {
					continue
				}
				info.IPv4 = ipNet.IP.String()
				if bcast := BroadcastAddr(ipNet); bcast != nil {
					info.Broadcast = bcast.String()
				}
				break
			}
		}

		info.WOLNotes = wolNotes(iface.Name)
		report.Interfaces = append(report.Interfaces, info)
	}

	return report, nil
}

// BroadcastAddr computes the subnet broadcast address from an IP network.
func BroadcastAddr(ipNet *net.IPNet) net.IP {
	ip := ipNet.IP.To4()
	if ip == nil {
		return nil
	}
	mask := ipNet.Mask
	if len(mask) == 16 {
		mask = mask[12:]
	}
	broadcast := make(net.IP, 4)
	for i := range ip {
		broadcast[i] = ip[i] | ^mask[i]
	}
	return broadcast
}

// DefaultBroadcast returns the subnet broadcast address of the interface
// that carries the default route, falling back to the limited broadcast
// address when it cannot be determined.
func DefaultBroadcast() string {
	ip, err := gateway.DiscoverInterface()
	if err != nil {
		return "255.255.255.255"
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "255.255.255.255"
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.Equal(ip) {
				if bcast := BroadcastAddr(ipNet); bcast != nil {
					return bcast.String()
				}
			}
		}
	}
	return "255.255.255.255"
}

// WriteSnapshot persists the report as indented JSON under the app
// directory and returns the file path.
func WriteSnapshot(r *Report) (string, error) {
	return WriteSnapshotTo(r, path.Join(appdir.AppDir(), SnapshotFile))
}

// WriteSnapshotTo persists the report to an explicit path.
func WriteSnapshotTo(r *Report, file string) (string, error) {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", fmt.Errorf("netinfo: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		return "", fmt.Errorf("netinfo: write snapshot %s: %w", file, err)
	}
	return file, nil
}
