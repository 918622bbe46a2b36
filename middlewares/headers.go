package middlewares

import "github.com/Meeting-BaaS/emails/internal"

// SecurityHeaders is the header set written by default.
var SecurityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'self'",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Permissions-Policy":        "camera=(), microphone=(), geolocation=()",
}

// Secure sets SecurityHeaders on every response.
func Secure() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			for k, v := range SecurityHeaders {
				c.SetHeader(k, v)
			}
			return next(c)
		}
	}
}
