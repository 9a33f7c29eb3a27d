// Package log wraps the standard slog package with credential masking.
//
// A pentest run passes real secrets through its logging surface: the login
// brute-force path carries candidate usernames and passwords, the config may
// hold a password file, and the search-index endpoint can embed basic auth in
// its URL. SecureHandler masks those before any record reaches the underlying
// handler, so even debug-level logs are safe to attach to a report or a
// ticket.
//
// Masking applies three rules: attribute keys containing credential keywords
// (password, token, session, ...) are replaced wholesale; string values
// shaped like credentials (JWTs, Authorization header values, PEM keys) are
// replaced regardless of key; and URLs with embedded userinfo keep their
// host but lose the credentials.
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, cfg.Debug)
//	slog.SetDefault(logger)
//	logger.Info("login sweep", "username", "admin", "password", "admin123")
//	// password is logged as ***REDACTED***
package log
