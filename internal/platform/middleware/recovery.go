package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const panicStackSize = 8 << 10

// Recovery turns a handler panic into a 500 and logs it with the request's
// tenant and route. A panic after the response has started is only logged;
// the partial body cannot be replaced.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				stack := make([]byte, panicStackSize)
				stack = stack[:runtime.Stack(stack, false)]

				ev := logger.Error().
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Bytes("stack", stack)
				if rid, ok := c.Get("request_id").(string); ok {
					ev = ev.Str("request_id", rid)
				}
				if tenant, ok := c.Get("tenant_id").(string); ok {
					ev = ev.Str("tenant_id", tenant)
				}
				if e, ok := r.(error); ok {
					ev = ev.Err(e)
				} else {
					ev = ev.Str("panic", fmt.Sprint(r))
				}
				committed := c.Response().Committed
				ev.Bool("committed", committed).Msg("panic recovered")

				if committed {
					err = nil
					return
				}
				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
