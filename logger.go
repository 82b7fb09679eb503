package http2

import (
	"log"
	"os"
)

// Logger is the minimal logging seam an Endpoint writes diagnostics
// through — connection teardown reasons, DoS-guard trips, frames
// rejected for protocol violations. It mirrors fasthttp.Logger's shape
// so an embedder that already has one wired up for other purposes can
// reuse it here without an adapter.
type Logger interface {
	Printf(format string, args ...interface{})
}

// defaultLogger wraps the standard library logger, matching the
// package-level logger the rest of this engine's ancestry used.
var defaultLogger Logger = log.New(os.Stdout, "[http2] ", log.LstdFlags)
