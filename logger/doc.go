// Package logger provides structured logging for rxscenario using zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers, and a test mode that routes log lines through testing.TB so harness
// diagnostics appear next to the failing scenario.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("scenario")
//	log.Debug("phase entered", logger.Fields(logger.FieldPhase, "when"))
package logger
