package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// MetricsBasicAuth protects /metrics with HTTP basic auth. An empty user
// leaves the endpoint open.
func MetricsBasicAuth(user, password string) echo.MiddlewareFunc {
	if user == "" {
		return passThrough
	}
	return echomw.BasicAuth(func(u, p string, _ echo.Context) (bool, error) {
		okUser := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
		okPass := subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
		return okUser && okPass, nil
	})
}
