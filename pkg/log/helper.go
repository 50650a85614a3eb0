package log

import (
	"fmt"
	stdlog "log"
)

// MustInit initializes the SQLite sink for the named app, or dies.
func MustInit(app string) {
	err := Init(fmt.Sprintf("%s.db", app))
	if err != nil {
		stdlog.Fatalf("FATAL: Failed to initialize logger: %v\n", err)
	}
}
