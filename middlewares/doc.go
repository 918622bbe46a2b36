// Package middlewares holds the HTTP middleware of the email service.
//
// # Request ID and recovery
//
// RequestID reuses a caller supplied X-Request-ID (or generates a ULID) and
// echoes it back. Pair it with RequestIDExtractor so every log line carries
// the id. Recover turns panics into *PanicError for the error handler.
//
// # Authentication
//
// Each route group is guarded by exactly one scheme:
//
//   - APIKey: backend calls with x-api-key or a bearer token
//   - CronSecret: scheduler calls with "Authorization: Bearer {CRON_SECRET}"
//   - Svix: signed Resend webhooks
//   - Session: dashboard users, resolved through the auth service cookie
//   - Admin: session users whose email is at the operator domain
//
// Admin reads the user stored by Session, so it is always mounted after it:
//
//	r.Route("/admin", func(r internal.Router) {
//	    r.Use(middlewares.Session(sessions), middlewares.Admin("meetingbaas.com"))
//	})
//
// # Response hygiene
//
// Secure writes the security header set, and RequestLogger logs one line per
// request and feeds the HTTP metrics.
package middlewares
