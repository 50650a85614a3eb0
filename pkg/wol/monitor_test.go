package wol

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

const eventWait = 3 * time.Second

// startTestMonitor runs a session on ephemeral ports and tears it down
// with the test.
func startTestMonitor(t *testing.T, cfg MonitorConfig) *MonitorSession {
	t.Helper()
	if len(cfg.Ports) == 0 {
		cfg.Ports = []int{0}
	}
	session, err := StartMonitor(context.Background(), cfg)
	if err != nil {
		t.Fatalf("StartMonitor: %v", err)
	}
	t.Cleanup(session.Stop)
	return session
}

func sendDatagram(t *testing.T, port int, payload []byte) {
	t.Helper()
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if err != nil {
		t.Fatalf("dial monitor port %d: %v", port, err)
	}
	defer conn.Close()
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write to monitor port %d: %v", port, err)
	}
}

func waitForEvent(t *testing.T, session *MonitorSession) Event {
	t.Helper()
	select {
	case ev, ok := <-session.Events():
		if !ok {
			t.Fatal("event channel closed before an event arrived")
		}
		return ev
	case <-time.After(eventWait):
		t.Fatal("timed out waiting for a monitor event")
	}
	panic("unreachable")
}

func TestMonitorReportsMagicPacket(t *testing.T) {
	session := startTestMonitor(t, MonitorConfig{Ports: []int{0, 0}})

	ports := session.Ports()
	if len(ports) != 2 || ports[0] == 0 || ports[1] == 0 {
		t.Fatalf("session did not report actual bound ports: %v", ports)
	}

	mac := mustParseMAC(t, "2c:4d:54:cf:f7:c1")
	sendDatagram(t, ports[1], buildMagicPacket(mac))

	ev := waitForEvent(t, session)
	if !bytes.Equal(ev.MAC, mac) {
		t.Errorf("event MAC = %s, want %s", ev.MAC, mac)
	}
	if ev.MACText != "2c:4d:54:cf:f7:c1" {
		t.Errorf("event MACText = %q", ev.MACText)
	}
	if ev.Port != ports[1] {
		t.Errorf("event receiving port = %d, want %d", ev.Port, ports[1])
	}
	if ev.PacketLen != MagicPacketSize {
		t.Errorf("event packet length = %d, want %d", ev.PacketLen, MagicPacketSize)
	}
	if ev.SourceIP != "127.0.0.1" || ev.SourcePort == 0 {
		t.Errorf("event source = %s:%d", ev.SourceIP, ev.SourcePort)
	}
}

func TestMonitorIgnoresNoise(t *testing.T) {
	session := startTestMonitor(t, MonitorConfig{})
	port := session.Ports()[0]

	mac := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")
	valid := buildMagicPacket(mac)

	badSync := append([]byte{}, valid...)
	badSync[0] = 0x00

	// Garbage first; the valid packet arriving afterwards proves the
	// session survived and kept listening.
	sendDatagram(t, port, []byte("hello"))
	sendDatagram(t, port, valid[:MagicPacketSize-1])
	sendDatagram(t, port, badSync)
	sendDatagram(t, port, valid)

	ev := waitForEvent(t, session)
	if !bytes.Equal(ev.MAC, mac) {
		t.Fatalf("event MAC = %s, want %s", ev.MAC, mac)
	}

	select {
	case ev, ok := <-session.Events():
		if ok {
			t.Fatalf("unexpected extra event: %+v", ev)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestMonitorTargetFilter(t *testing.T) {
	target := mustParseMAC(t, "2c:4d:54:cf:f7:c1")
	session := startTestMonitor(t, MonitorConfig{TargetMAC: target})
	port := session.Ports()[0]

	other := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")
	sendDatagram(t, port, buildMagicPacket(other))
	sendDatagram(t, port, buildMagicPacket(target))

	ev := waitForEvent(t, session)
	if !bytes.Equal(ev.MAC, target) {
		t.Fatalf("filtered session reported %s, want only %s", ev.MAC, target)
	}
}

func TestMonitorStop(t *testing.T) {
	session := startTestMonitor(t, MonitorConfig{})

	done := make(chan struct{})
	go func() {
		session.Stop()
		session.Stop() // idempotent
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(eventWait):
		t.Fatal("Stop did not return")
	}

	select {
	case <-session.Done():
	default:
		t.Fatal("Done channel not closed after Stop")
	}
	if _, ok := <-session.Events(); ok {
		t.Fatal("event channel not closed after Stop")
	}
}

func TestMonitorContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session, err := StartMonitor(ctx, MonitorConfig{Ports: []int{0}})
	if err != nil {
		t.Fatalf("StartMonitor: %v", err)
	}
	defer session.Stop()
	port := session.Ports()[0]

	cancel()

	select {
	case <-session.Done():
	case <-time.After(eventWait):
		t.Fatal("session did not exit after context cancellation")
	}

	// Done promises full teardown: the port must be free for a plain
	// bind (no SO_REUSEADDR) the moment it closes.
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		t.Fatalf("port %d still bound after Done: %v", port, err)
	}
	conn.Close()
}

func TestMonitorBindFailureIsFatal(t *testing.T) {
	// Occupy a port without SO_REUSEADDR so a second bind must fail.
	blocker, busyPort := newUDPReceiver(t)
	defer blocker.Close()

	free, freePort := newUDPReceiver(t)
	free.Close()

	_, err := StartMonitor(context.Background(), MonitorConfig{Ports: []int{freePort, busyPort}})
	if err == nil {
		t.Fatal("StartMonitor succeeded with a busy port; partial sessions are not allowed")
	}
}
