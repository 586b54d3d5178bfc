// Package log provides credential-safe logging built on top of the standard
// slog package.
//
// This package extends slog to provide:
//   - Automatic masking of credential values (GitHub tokens, auth headers)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Masking
//
// The RedactHandler masks credentials in log output by key name
// (authorization, token, api_key, ...) and by value shape (GitHub personal
// access token prefixes, "token ..." and "Bearer ..." header values, JWTs).
// Even in verbose mode the API token never reaches a log stream that may be
// shared or stored.
//
// # Usage
//
//	logger := log.NewRedactLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "authorization", "token ghp_abc123",  // Masked to ***REDACTED***
//	    "url", "https://api.github.com/repos/alice/proxy-list",
//	)
//
//	slog.SetDefault(logger)
package log
