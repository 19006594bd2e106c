// Package logger provides leveled logging for the bulk-operation console.
// Long-running polling sessions produce a steady stream of low-value ticks,
// so everything below the configured level is dropped before formatting.
package logger

import (
	"log"
	"strings"
)

// LogLevel orders the severity of log messages.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// parseLevel maps a level name to its LogLevel. Unknown names report false.
func parseLevel(name string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// logLevel is the process-wide threshold. Messages below it are discarded.
var logLevel = LevelInfo

// SetLogLevel sets the global threshold from a level name, case-insensitive.
// An unrecognized name keeps INFO and logs a warning about the bad value.
func SetLogLevel(level string) {
	parsed, ok := parseLevel(level)
	if !ok {
		log.Printf("[WARN] Unknown log level '%s', keeping INFO.", level)
	}
	logLevel = parsed
}

// Debugf logs a DEBUG message when the threshold allows it.
func Debugf(format string, v ...interface{}) {
	if logLevel <= LevelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof logs an INFO message when the threshold allows it.
func Infof(format string, v ...interface{}) {
	if logLevel <= LevelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf logs a WARN message when the threshold allows it.
func Warnf(format string, v ...interface{}) {
	if logLevel <= LevelWarn {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf logs an ERROR message when the threshold allows it.
func Errorf(format string, v ...interface{}) {
	if logLevel <= LevelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf logs a FATAL message and terminates the process with exit code 1.
// FATAL ignores the threshold; a dying process always says why.
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
