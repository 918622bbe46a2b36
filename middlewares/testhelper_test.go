package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Meeting-BaaS/emails/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

// serve runs req through an app with a single handler on "/" wrapped in mws.
// mws are route middleware, so errors travel through the whole chain.
func serve(t *testing.T, req *http.Request, fn internal.HandlerFunc, mws ...internal.Middleware) *httptest.ResponseRecorder {
	t.Helper()

	app := internal.New(
		internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/", fn, mws...)
			r.POST("/", fn, mws...)
		})),
	)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func ok(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}
