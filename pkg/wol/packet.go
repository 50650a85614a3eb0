// Package wol implements the Wake-on-LAN magic packet codec and the UDP
// transport used to broadcast magic packets and monitor for them on the wire.
package wol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

const (
	// DefaultPort is the conventional Wake-on-LAN UDP port (9, "discard").
	DefaultPort = 9
	// AltPort is the other conventional Wake-on-LAN UDP port (7, "echo").
	AltPort = 7

	// DefaultBroadcast is the limited broadcast address used when no
	// subnet-specific broadcast is given.
	DefaultBroadcast = "255.255.255.255"

	macLen    = 6
	syncLen   = 6
	macRepeat = 16

	// MagicPacketSize is the exact wire size of a magic packet:
	// 6 synchronization bytes of 0xFF followed by 16 repetitions of the
	// 6-byte target MAC.
	MagicPacketSize = syncLen + macRepeat*macLen
)

// MagicPacket is the 102-byte Wake-on-LAN payload. There is no framing
// beyond the UDP/IP stack; this is the whole datagram.
type MagicPacket [MagicPacketSize]byte

// ParseMAC parses a textual MAC address. Any form using ':' or '-'
// separators (or none at all) that yields exactly 12 hex digits is
// accepted; anything else fails with ErrInvalidMACAddress.
func ParseMAC(s string) (net.HardwareAddr, error) {
	stripped := strings.NewReplacer(":", "", "-", "").Replace(s)
	raw, err := hex.DecodeString(stripped)
	if err != nil || len(raw) != macLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMACAddress, s)
	}
	return net.HardwareAddr(raw), nil
}

// NewMagicPacket builds the payload for the given textual MAC address.
func NewMagicPacket(mac string) (*MagicPacket, error) {
	hw, err := ParseMAC(mac)
	if err != nil {
		return nil, err
	}
	return EncodeMagicPacket(hw), nil
}

// EncodeMagicPacket builds the payload from an already-parsed 6-byte MAC.
func EncodeMagicPacket(hw net.HardwareAddr) *MagicPacket {
	var pkt MagicPacket
	for i := 0; i < syncLen; i++ {
		pkt[i] = 0xFF
	}
	for i := 0; i < macRepeat; i++ {
		copy(pkt[syncLen+i*macLen:], hw)
	}
	return &pkt
}

// Bytes returns the packet as a slice over the underlying array.
func (p *MagicPacket) Bytes() []byte { return p[:] }

// SyncStreamHex renders the synchronization bytes as space-separated hex,
// for trace output.
func (p *MagicPacket) SyncStreamHex() string { return hexFields(p[:syncLen]) }

// FirstCopyHex renders the first embedded MAC copy as space-separated hex.
func (p *MagicPacket) FirstCopyHex() string { return hexFields(p[syncLen : syncLen+macLen]) }

func hexFields(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, " ")
}

// Match is the positive result of Decode: the MAC address embedded in a
// structurally valid magic packet.
type Match struct {
	MAC net.HardwareAddr
}

// Decode inspects a received datagram and reports whether it is a magic
// packet. The datagram must be exactly 102 bytes and start with six 0xFF
// bytes; the embedded MAC is taken from the first repetition (the 16
// copies are not cross-checked). When target is non-nil, packets for any
// other MAC are treated as no-match. A false result is not an error, it
// just means the datagram is noise.
func Decode(datagram []byte, target net.HardwareAddr) (Match, bool) {
	if len(datagram) != MagicPacketSize {
		return Match{}, false
	}
	for i := 0; i < syncLen; i++ {
		if datagram[i] != 0xFF {
			return Match{}, false
		}
	}
	mac := make(net.HardwareAddr, macLen)
	copy(mac, datagram[syncLen:syncLen+macLen])
	if target != nil && !bytes.Equal(mac, target) {
		return Match{}, false
	}
	return Match{MAC: mac}, true
}
