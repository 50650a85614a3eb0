package wol

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"
)

// newUDPReceiver binds an ephemeral loopback socket and returns it with
// its port, so send tests never depend on privileged or fixed ports.
func newUDPReceiver(t *testing.T) (*net.UDPConn, int) {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("bind receiver: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func TestSendDeliversValidMagicPacket(t *testing.T) {
	conn, port := newUDPReceiver(t)

	report, err := Send("2c:4d:54:cf:f7:c1", "127.0.0.1", port)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if report.BytesSent != MagicPacketSize {
		t.Fatalf("report.BytesSent = %d, want %d", report.BytesSent, MagicPacketSize)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if n != MagicPacketSize {
		t.Fatalf("received %d bytes, want %d", n, MagicPacketSize)
	}

	m, ok := Decode(buf[:n], nil)
	if !ok {
		t.Fatal("received datagram is not a valid magic packet")
	}
	want := mustParseMAC(t, "2c:4d:54:cf:f7:c1")
	if !bytes.Equal(m.MAC, want) {
		t.Fatalf("received packet targets %s, want %s", m.MAC, want)
	}
}

func TestSendReportTrace(t *testing.T) {
	_, port := newUDPReceiver(t)

	report, err := Send("AA-BB-CC-DD-EE-FF", "127.0.0.1", port)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if report.MAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("report.MAC = %q, want normalized form", report.MAC)
	}
	if report.Broadcast != "127.0.0.1" || report.Port != port {
		t.Errorf("report destination = %s:%d, want 127.0.0.1:%d", report.Broadcast, report.Port, port)
	}
	if report.SyncStream != "ff ff ff ff ff ff" {
		t.Errorf("report.SyncStream = %q", report.SyncStream)
	}
	if report.FirstCopy != "aa bb cc dd ee ff" {
		t.Errorf("report.FirstCopy = %q", report.FirstCopy)
	}
	if report.Response != nil {
		t.Errorf("plain Send should not carry a response, got %+v", report.Response)
	}
}

func TestSendRejectsInvalidInput(t *testing.T) {
	if _, err := Send("not-a-mac", "127.0.0.1", 9999); !errors.Is(err, ErrInvalidMACAddress) {
		t.Fatalf("invalid MAC error = %v, want ErrInvalidMACAddress", err)
	}
	if _, err := Send("aa:bb:cc:dd:ee:ff", "broadcast.example", 9999); err == nil {
		t.Fatal("Send accepted a non-IP broadcast address")
	}
	if _, err := Send("aa:bb:cc:dd:ee:ff", "::1", 9999); err == nil {
		t.Fatal("Send accepted an IPv6 broadcast address")
	}
}
