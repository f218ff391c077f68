// Package logging gives every package a named, structured logger via
// `var log = logging.Get("/pkg/path")`.
package logging

import (
	elog "github.com/eluv-io/log-go"
)

// Get returns a named, structured key-value logger scoped to path, e.g.
// "/packager/iocache". Callers log with log.Debug(msg, "key", val, ...).
func Get(path string) *elog.Log {
	return elog.Get(path)
}

// Bootstrap configures the process-wide default logger. cmd/packager calls
// this once at startup, mirroring avcmd/main.go's log.SetDefault call.
func Bootstrap(level, logFile string) {
	cfg := &elog.Config{
		Level:   level,
		Handler: "text",
	}
	if logFile != "" {
		cfg.File = &elog.LumberjackConfig{
			Filename:  logFile,
			LocalTime: true,
		}
	}
	elog.SetDefault(cfg)
}
