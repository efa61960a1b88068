package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userKey identifies the caller for rate-limit buckets: the authenticated
// user id, or "anon" on public routes.
func userKey(c echo.Context) string {
	switch v := c.Get(ctxUserID).(type) {
	case uint64:
		if v != 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
