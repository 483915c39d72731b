// Package log builds slog loggers that mask secrets before they are written.
//
// Ping endpoints are configured by the user and may carry API keys in their
// query string, and the journal directory or base URL may embed credentials.
// RedactingHandler masks:
//   - values of sensitive attribute keys (authorization, cookie, token, ...)
//   - bearer and basic credentials and JWTs, whatever the key
//   - sensitive query parameters (key, token, signature, ...) and userinfo
//     passwords inside URL values
//
// # Usage
//
//	logger := log.NewRedactingLogger(os.Stderr, verbose)
//	logger.Info("ping sent", "url", "https://ping.example/?sitemap=x&key=abc")
//	// url=https://ping.example/?sitemap=x&key=***REDACTED***
package log
