package backend

import "github.com/btcsuite/btclog"

// log is a package-level logger that is disabled by default. Callers wire
// a real logger in via UseLogger.
var log = btclog.Disabled

// UseLogger sets the package logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
