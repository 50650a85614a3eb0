package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Broadcast != "255.255.255.255" {
		t.Errorf("default broadcast = %q", cfg.Broadcast)
	}
	if cfg.Port != 9 {
		t.Errorf("default port = %d", cfg.Port)
	}
	if len(cfg.MonitorPorts) != 2 || cfg.MonitorPorts[0] != 7 || cfg.MonitorPorts[1] != 9 {
		t.Errorf("default monitor ports = %v", cfg.MonitorPorts)
	}
	if cfg.PollTimeout <= 0 {
		t.Errorf("default poll timeout = %v", cfg.PollTimeout)
	}
}

func TestFindMachine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Machines = []Machine{
		{Name: "nas", MAC: "2c:4d:54:cf:f7:c1"},
		{Name: "desk", MAC: "aa:bb:cc:dd:ee:ff", Broadcast: "192.168.1.255", Port: 7},
	}

	m, ok := cfg.FindMachine("desk")
	if !ok {
		t.Fatal("FindMachine failed on a configured name")
	}
	if m.MAC != "aa:bb:cc:dd:ee:ff" || m.Port != 7 {
		t.Fatalf("FindMachine returned wrong machine: %+v", m)
	}

	if _, ok := cfg.FindMachine("missing"); ok {
		t.Fatal("FindMachine matched an unknown name")
	}
}
