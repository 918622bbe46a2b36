package middlewares

import (
	"crypto/subtle"

	"github.com/Meeting-BaaS/emails/internal"
)

var (
	apiKeyExtractor = internal.NewExtractor(
		internal.FromHeader("x-api-key"),
		internal.FromBearerToken(),
	)
	bearerExtractor = internal.NewExtractor(internal.FromBearerToken())
)

// APIKey admits requests from the backend carrying key in x-api-key or as a
// bearer token. An empty key rejects everything.
func APIKey(key string) internal.Middleware {
	return sharedSecret(key, apiKeyExtractor, "Unauthorized API request")
}

// CronSecret admits scheduler requests carrying "Authorization: Bearer
// {secret}". An empty secret rejects everything.
func CronSecret(secret string) internal.Middleware {
	return sharedSecret(secret, bearerExtractor, "Unauthorized cron request")
}

func sharedSecret(secret string, ext internal.Extractor, message string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			got, ok := ext.Extract(c)
			if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				c.LogWarn("rejected shared secret", "path", c.Request().URL.Path)
				return internal.ErrUnauthorized(message)
			}
			return next(c)
		}
	}
}
