// Package internal provides the HTTP kernel of the email service: the App,
// its Router and the per-request Context that handlers and middleware use.
//
// # Core Types
//
//   - App: Orchestrates routing, middleware, health endpoints, jobs and graceful shutdown
//   - Context: Request/response access, binding with validation, logging helpers
//   - Router: Interface handlers use to declare routes with HTTP methods and grouping
//   - Handler: Implemented by types that declare routes on a router
//   - HandlerFunc: Signature for route handlers that return errors
//   - Middleware: Wraps handlers to add cross-cutting concerns like auth or logging
//   - HTTPError: Error value carrying the status and envelope fields
//
// # Context as context.Context
//
// Context embeds context.Context, so it can be passed directly to store calls
// and HTTP clients:
//
//	func (h *Preferences) list(c internal.Context) error {
//	    rows, err := h.store.List(c, accountID)
//	    if err != nil {
//	        return err
//	    }
//	    return c.JSON(http.StatusOK, rows)
//	}
//
// # Binding
//
// BindJSON and BindQuery decode the request into a struct and validate it with
// go-playground/validator. Field problems come back as ValidationErrors and
// never as the error result, which is reserved for programming errors:
//
//	var req sendRequest
//	verrs, err := c.BindJSON(&req)
//	if err != nil {
//	    return err
//	}
//	if verrs != nil {
//	    return internal.ErrBadRequest("Invalid request body", internal.WithErrors(verrs))
//	}
//
// # Error Handling
//
// Handlers return errors instead of writing error responses. The App passes
// them to the ErrorHandler configured with WithErrorHandler, unless the
// response was already written.
//
// # Lifecycle
//
// App.Run listens, runs startup hooks, starts the job manager if one was
// attached with WithJobs, and serves until SIGINT or SIGTERM. Shutdown stops
// the HTTP server first, then the job manager, then the registered hooks.
package internal
