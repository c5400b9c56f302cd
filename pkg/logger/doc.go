// Package logger provides a structured logging interface for sharefetch.
//
// It wraps the zerolog library to provide a clean API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "sharefetch/pkg/logger"
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil {
//	    // handle error
//	}
//	logger.WithFields(map[string]interface{}{
//	    "path": "/tmp/a.mp4",
//	}).Info("download complete")
package logger
