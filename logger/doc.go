// Package logger provides structured logging for sigdispatch using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "billing-sdk").WithComponent("dispatch")
//	log.Debug("dispatch finished", logger.Fields("status", 200))
//
// Libraries that accept a *Logger default to NewNop so nothing is written
// unless the application opts in.
package logger
