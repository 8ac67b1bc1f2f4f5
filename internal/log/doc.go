// Package log builds the slog loggers used across httpsdash.
//
// Every logger returned here is wrapped in a SecureHandler. Capture files
// contain complete request URLs, including query strings that frequently
// carry session identifiers and signed tokens; the handler masks those
// before the record is written.
//
//	logger := log.NewSecureLogger(os.Stderr, log.LevelFromFlags(quiet, verbose))
//	logger.Warn("skipping site", "site", "example.com",
//	    "url", "https://cdn.example.com/a.js?token=abc") // token=***REDACTED***
package log
