package internal

// Handler declares routes on a router.
//
// Example:
//
//	type PreferencesHandler struct {
//	    store *store.Preferences
//	}
//
//	func (h *PreferencesHandler) Routes(r internal.Router) {
//	    r.GET("/preferences", h.list)
//	    r.POST("/preferences/{emailId}", h.update)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// It receives a Context and returns an error.
// Returning a non-nil error triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect the request, short-circuit processing,
// or wrap the response.
//
// Example:
//
//	func APIKey(key string) internal.Middleware {
//	    return func(next internal.HandlerFunc) internal.HandlerFunc {
//	        return func(c internal.Context) error {
//	            if c.Header("x-api-key") != key {
//	                return internal.ErrUnauthorized("Unauthorized API request")
//	            }
//	            return next(c)
//	        }
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
