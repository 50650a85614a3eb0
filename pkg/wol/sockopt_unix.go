//go:build !windows

package wol

import "golang.org/x/sys/unix"

// setBroadcast enables SO_BROADCAST on an already-connected sender socket.
// Sending to a broadcast address without it fails with EACCES on most
// platforms, so the option is set explicitly rather than relied upon.
func setBroadcast(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
}

// setListenerSockopts configures a monitor socket before bind: address
// reuse, so a restarted session does not trip over a lingering bind, and
// broadcast reception.
func setListenerSockopts(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
}
