package wol

import (
	"bytes"
	"errors"
	"net"
	"testing"
)

func mustParseMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	hw, err := ParseMAC(s)
	if err != nil {
		t.Fatalf("ParseMAC(%q): %v", s, err)
	}
	return hw
}

// buildMagicPacket constructs a raw datagram for decode tests, bypassing
// the encoder so the two cannot hide a shared bug.
func buildMagicPacket(mac net.HardwareAddr) []byte {
	pkt := make([]byte, 0, MagicPacketSize)
	for i := 0; i < 6; i++ {
		pkt = append(pkt, 0xFF)
	}
	for i := 0; i < 16; i++ {
		pkt = append(pkt, mac...)
	}
	return pkt
}

func TestParseMAC(t *testing.T) {
	want := net.HardwareAddr{0x2c, 0x4d, 0x54, 0xcf, 0xf7, 0xc1}

	tests := []struct {
		name    string
		input   string
		want    net.HardwareAddr
		wantErr bool
	}{
		{name: "colon separated", input: "2c:4d:54:cf:f7:c1", want: want},
		{name: "dash separated", input: "2C-4D-54-CF-F7-C1", want: want},
		{name: "no separator", input: "2c4d54cff7c1", want: want},
		{name: "uppercase", input: "2C:4D:54:CF:F7:C1", want: want},
		{name: "empty", input: "", wantErr: true},
		{name: "not hex", input: "not-a-mac", wantErr: true},
		{name: "too short", input: "aa:bb:cc", wantErr: true},
		{name: "too long", input: "aa:bb:cc:dd:ee:ff:00", wantErr: true},
		{name: "invalid hex digits", input: "gg:hh:ii:jj:kk:ll", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMAC(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMAC(%q) succeeded, want error", tt.input)
				}
				if !errors.Is(err, ErrInvalidMACAddress) {
					t.Fatalf("ParseMAC(%q) error %v is not ErrInvalidMACAddress", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMAC(%q): %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("ParseMAC(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodeMagicPacketStructure(t *testing.T) {
	mac := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")
	pkt := EncodeMagicPacket(mac)

	raw := pkt.Bytes()
	if len(raw) != MagicPacketSize {
		t.Fatalf("packet length = %d, want %d", len(raw), MagicPacketSize)
	}
	for i := 0; i < 6; i++ {
		if raw[i] != 0xFF {
			t.Fatalf("sync byte %d = %#02x, want 0xFF", i, raw[i])
		}
	}
	for i := 0; i < 16; i++ {
		copySlice := raw[6+i*6 : 6+(i+1)*6]
		if !bytes.Equal(copySlice, mac) {
			t.Fatalf("MAC repetition %d = %v, want %v", i, copySlice, mac)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00:00:00:00:00", "2c:4d:54:cf:f7:c1", "ff:ff:ff:ff:ff:ff"} {
		mac := mustParseMAC(t, s)
		pkt := EncodeMagicPacket(mac)
		m, ok := Decode(pkt.Bytes(), nil)
		if !ok {
			t.Fatalf("Decode rejected packet encoded for %s", s)
		}
		if !bytes.Equal(m.MAC, mac) {
			t.Fatalf("round trip for %s yielded %s", s, m.MAC)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	mac := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")
	valid := buildMagicPacket(mac)

	truncated := valid[:MagicPacketSize-1]
	oversized := append(append([]byte{}, valid...), 0x00)

	badSync := append([]byte{}, valid...)
	badSync[3] = 0xFE

	tests := []struct {
		name     string
		datagram []byte
	}{
		{name: "empty", datagram: nil},
		{name: "one byte short", datagram: truncated},
		{name: "one byte long", datagram: oversized},
		{name: "corrupted sync stream", datagram: badSync},
		{name: "all zeros", datagram: make([]byte, MagicPacketSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Decode(tt.datagram, nil); ok {
				t.Fatalf("Decode accepted %s datagram", tt.name)
			}
		})
	}
}

func TestDecodeUsesFirstCopy(t *testing.T) {
	mac := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")
	pkt := buildMagicPacket(mac)
	// Corrupt a later repetition; only the first copy is authoritative.
	pkt[MagicPacketSize-1] ^= 0xAA

	m, ok := Decode(pkt, nil)
	if !ok {
		t.Fatal("Decode rejected packet with corrupted trailing repetition")
	}
	if !bytes.Equal(m.MAC, mac) {
		t.Fatalf("Decode returned %s, want %s", m.MAC, mac)
	}
}

func TestDecodeTargetFilter(t *testing.T) {
	mac := mustParseMAC(t, "2c:4d:54:cf:f7:c1")
	other := mustParseMAC(t, "aa:bb:cc:dd:ee:ff")
	pkt := buildMagicPacket(mac)

	// Filter formats differing only in case and separators still match.
	if _, ok := Decode(pkt, mustParseMAC(t, "2C-4D-54-CF-F7-C1")); !ok {
		t.Fatal("Decode rejected packet matching the target filter")
	}
	if _, ok := Decode(pkt, other); ok {
		t.Fatal("Decode accepted packet for a different MAC than the filter")
	}
	if m, ok := Decode(pkt, nil); !ok || !bytes.Equal(m.MAC, mac) {
		t.Fatal("Decode with nil filter should accept any valid packet")
	}
}

func TestMagicPacketHexTraces(t *testing.T) {
	pkt := EncodeMagicPacket(mustParseMAC(t, "01:02:03:0a:0b:0c"))

	if got, want := pkt.SyncStreamHex(), "ff ff ff ff ff ff"; got != want {
		t.Fatalf("SyncStreamHex() = %q, want %q", got, want)
	}
	if got, want := pkt.FirstCopyHex(), "01 02 03 0a 0b 0c"; got != want {
		t.Fatalf("FirstCopyHex() = %q, want %q", got, want)
	}
}
