package wol

import (
	"encoding/hex"
	"fmt"
	"net"
	"syscall"
	"time"

	"lanwake-go/pkg/log"
)

// responseWait bounds the optional post-send diagnostic listen.
const responseWait = 2 * time.Second

// SendReport describes a completed send. It carries every field of the
// packet trace so that non-terminal embedders (web UI, management socket)
// can render it without re-deriving anything.
type SendReport struct {
	MAC        string        `json:"mac"`
	Broadcast  string        `json:"broadcast"`
	Port       int           `json:"port"`
	BytesSent  int           `json:"bytes_sent"`
	SyncStream string        `json:"sync_stream"`
	FirstCopy  string        `json:"first_mac_copy"`
	Response   *SendResponse `json:"response,omitempty"`
}

// SendResponse is the optional diagnostic datagram received after a send.
// WoL targets are usually powered off, so this is almost always absent.
type SendResponse struct {
	From    string `json:"from"`
	Payload string `json:"payload"`
}

// Send encodes a magic packet for mac and broadcasts it once to
// broadcast:port. An empty broadcast defaults to 255.255.255.255, a zero
// port to 9. Success means the local stack accepted the datagram for
// transmission; WoL is fire-and-forget and there is no delivery
// acknowledgment.
func Send(mac, broadcast string, port int) (*SendReport, error) {
	return send(mac, broadcast, port, false)
}

// SendAndProbe behaves like Send, then binds a second ephemeral socket on
// the same port and waits up to two seconds for any inbound datagram.
// The probe is purely diagnostic: a timeout or a bind failure (for
// instance when a monitor session already owns the port) never affects
// the outcome of the send.
func SendAndProbe(mac, broadcast string, port int) (*SendReport, error) {
	return send(mac, broadcast, port, true)
}

func send(mac, broadcast string, port int, probe bool) (*SendReport, error) {
	if broadcast == "" {
		broadcast = DefaultBroadcast
	}
	if port == 0 {
		port = DefaultPort
	}

	pkt, err := NewMagicPacket(mac)
	if err != nil {
		return nil, err
	}

	ip := net.ParseIP(broadcast)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid broadcast address %q", broadcast)
	}

	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: ip, Port: port})
	if err != nil {
		return nil, fmt.Errorf("wol send: dial %s:%d: %w", broadcast, port, err)
	}
	defer conn.Close()

	if err := enableBroadcast(conn); err != nil {
		return nil, fmt.Errorf("wol send: enable SO_BROADCAST: %w", err)
	}

	n, err := conn.Write(pkt.Bytes())
	if err != nil {
		return nil, fmt.Errorf("wol send: write to %s:%d: %w", broadcast, port, err)
	}
	if n != MagicPacketSize {
		return nil, fmt.Errorf("wol send: short write: %d of %d bytes", n, MagicPacketSize)
	}
	PacketsSentTotal.Inc()

	report := &SendReport{
		MAC:        net.HardwareAddr(pkt[syncLen : syncLen+macLen]).String(),
		Broadcast:  broadcast,
		Port:       port,
		BytesSent:  n,
		SyncStream: pkt.SyncStreamHex(),
		FirstCopy:  pkt.FirstCopyHex(),
	}

	log.Info().
		Str("mac", report.MAC).
		Str("broadcast", broadcast).
		Int("port", port).
		Int("bytes", n).
		Str("sync_stream", report.SyncStream).
		Str("first_mac_copy", report.FirstCopy).
		Msg("magic packet sent")

	if probe {
		report.Response = listenForResponse(port)
	}
	return report, nil
}

// listenForResponse performs the best-effort post-send listen. All
// failures are swallowed: the function either returns one datagram or nil.
func listenForResponse(port int) *SendResponse {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		log.Debug().Int("port", port).Err(err).Msg("response probe could not bind")
		return nil
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(responseWait)); err != nil {
		return nil
	}
	buf := make([]byte, 1024)
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		log.Debug().Int("port", port).Msg("no response received")
		return nil
	}
	return &SendResponse{
		From:    addr.String(),
		Payload: hex.EncodeToString(buf[:n]),
	}
}

func enableBroadcast(conn *net.UDPConn) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	if err := rc.Control(func(fd uintptr) { serr = setBroadcast(fd) }); err != nil {
		return err
	}
	return serr
}

// controlListener is the pre-bind hook used for monitor sockets.
func controlListener(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) { serr = setListenerSockopts(fd) }); err != nil {
		return err
	}
	return serr
}
