// Package log provides the logging abstraction used by every netrng component.
//
// Components never look a logger up globally; they receive a Logger at
// construction. A zerolog-backed implementation is provided for the CLI and a
// no-op logger for tests and embedders that do not want output.
//
// # Usage
//
//	logger := log.New(log.Options{Format: log.FormatConsole, Debug: true})
//	logger.Info("listening", log.String("addr", ln.Addr().String()))
//
//	session := logger.With(log.String("peer", conn.RemoteAddr().String()))
//	session.Debug("request received", log.String("kind", "sample"))
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with your existing
// logging infrastructure.
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.1.0
package log
