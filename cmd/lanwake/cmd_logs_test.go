package main

import (
	"strings"
	"testing"
	"time"

	"lanwake-go/pkg/log"
)

func TestPrettyLogLine(t *testing.T) {
	entry := log.LogEntry{
		ID:         1,
		InsertedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		LogData:    `{"level":"info","time":"2026-01-02T03:04:05Z","message":"magic packet sent","port":9,"mac":"aa:bb:cc:dd:ee:ff"}`,
	}

	line := prettyLogLine(entry)
	for _, want := range []string{
		"2026-01-02T03:04:05Z",
		"INFO",
		"magic packet sent",
		"mac=aa:bb:cc:dd:ee:ff",
		"port=9",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("pretty line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "level=") || strings.Contains(line, "message=") {
		t.Errorf("pretty line %q repeats promoted fields", line)
	}
}

func TestPrettyLogLineMalformed(t *testing.T) {
	entry := log.LogEntry{LogData: "not json"}
	if got := prettyLogLine(entry); got != "not json" {
		t.Fatalf("malformed entry rendered %q, want verbatim", got)
	}
}
