// Package log provides rendezq's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a bridge handler that routes records through a
// Formatter and a set of Outputs, so every component writes the same shape
// of line regardless of where the record was produced.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("server"), log.Str("addr", "127.0.0.1:8081"))
//	l.Info("listening", log.Int("max_sessions", 5))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting and console or rotating file output. Redaction and
// per-message sampling are applied in the slog handler.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger (Pebble, gRPC), use
// ToStdLogger or RedirectStdLog.
package log
