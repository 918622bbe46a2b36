package middlewares

import (
	"net/http"
	"time"

	"github.com/Meeting-BaaS/emails/internal"
)

// HTTPObserver records request outcomes.
type HTTPObserver interface {
	ObserveHTTP(method string, status int, elapsed time.Duration)
}

// RequestLogger logs one line per request with its status and duration.
// Errors returned by the handler are counted as the status the error
// handler will write for them.
func RequestLogger(obs HTTPObserver) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			status := http.StatusOK
			if rw := c.ResponseWriter(); rw != nil && rw.Written() {
				status = rw.Status()
			} else if err != nil {
				status = http.StatusInternalServerError
				if he := internal.AsHTTPError(err); he != nil {
					status = he.StatusCode()
				}
			}

			r := c.Request()
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			}
			switch {
			case status >= http.StatusInternalServerError:
				c.LogError("request completed", attrs...)
			case status >= http.StatusBadRequest:
				c.LogWarn("request completed", attrs...)
			default:
				c.LogInfo("request completed", attrs...)
			}
			if obs != nil {
				obs.ObserveHTTP(r.Method, status, elapsed)
			}
			return err
		}
	}
}
