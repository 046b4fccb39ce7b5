package middleware

// identity.go defines helpers shared across middleware files.  The planner
// has no user accounts; the caller is identified by the canvas session it
// drives, taken from the :sid route parameter or the X-Session-ID header.

import "github.com/labstack/echo/v4"

// SessionHeader lets clients tag requests outside the session routes.
const SessionHeader = "X-Session-ID"

// sessionID returns the canvas session of the request, or "anon".
func sessionID(c echo.Context) string {
	if v := c.Param("sid"); v != "" {
		return v
	}
	if v := c.Request().Header.Get(SessionHeader); v != "" {
		return v
	}
	return "anon"
}
