package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	ctxOperatorID = "operator_id"
	ctxRole       = "role"
	ctxUsername   = "username"
)

// OperatorID returns the authenticated operator id, or "" for anonymous
// requests.
func OperatorID(c echo.Context) string {
	s, _ := c.Get(ctxOperatorID).(string)
	return s
}

// Role returns the role claim of the authenticated operator.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// principal identifies the caller for rate limiting: the operator id when
// authenticated, otherwise "anon".
func principal(c echo.Context) string {
	if id := OperatorID(c); id != "" {
		return id
	}
	return "anon"
}
