package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parceldesk/courier-system/internal/api/middleware"
	"github.com/parceldesk/courier-system/internal/core/domain"
)

// ctxCaller builds the registered caller from the claims injected by the
// Auth middleware. A missing user id means the middleware did not run.
func ctxCaller(c echo.Context) (domain.Caller, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return domain.Registered{UserID: userID, Role: domain.Role(role)}, nil
}

// guestCaller resolves the caller on routes open to guests: a valid token
// wins, otherwise the phone from the request body identifies the receiver.
func guestCaller(c echo.Context, phone string) (domain.Caller, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	caller := domain.ResolveCaller(userID, domain.Role(role), phone)
	if caller == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "phone or token required")
	}
	return caller, nil
}
