package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout returns middleware that sets a context deadline on each
// incoming request. The handler runs on the request goroutine and must honor
// ctx.Done(). If the deadline has passed when it returns and nothing was
// written, a 504 replaces the handler's result.
//
// Requests whose path starts with one of skipPrefixes get no deadline.
// Completion calls carry their own, shorter timeout, so the request deadline
// only catches handlers that stall elsewhere.
func RequestTimeout(timeout time.Duration, skipPrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, p := range skipPrefixes {
				if strings.HasPrefix(c.Request().URL.Path, p) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return gatewayTimeout(c)
			}
			return err
		}
	}
}

func gatewayTimeout(c echo.Context) error {
	return c.JSON(http.StatusGatewayTimeout, map[string]string{
		"message": "request processing exceeded the allowed time limit",
	})
}
