package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// UserHandler serves profile updates and the account directories.
type UserHandler struct {
	auth    ports.AuthService
	queries ports.QueryService
}

func NewUserHandler(auth ports.AuthService, queries ports.QueryService) *UserHandler {
	return &UserHandler{auth: auth, queries: queries}
}

type profileRequest struct {
	Phone   string `json:"phone"   validate:"max=32"`
	Address string `json:"address" validate:"max=250"`
	City    string `json:"city"    validate:"max=80"`
}

type userListResponse struct {
	Items []*domain.User `json:"items"`
	Total int64          `json:"total"`
}

func toUserList(l *ports.UserList) userListResponse {
	items := l.Items
	if items == nil {
		items = []*domain.User{}
	}
	return userListResponse{Items: items, Total: l.Total}
}

// UpdateProfile handles PATCH /v1/profile.
//
// @Summary      Update contact details
// @Description  Changes phone, address or city. A phone registered to another account is rejected.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/profile [patch]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.auth.UpdateProfile(c.Request().Context(), caller, ports.ProfileUpdate{
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ListReceivers handles GET /v1/receivers.
//
// @Summary      List registered receivers
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Router       /v1/receivers [get]
func (h *UserHandler) ListReceivers(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	list, err := h.queries.ListReceivers(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserList(list))
}

// ListUsers handles GET /v1/admin/users.
//
// @Summary      List all accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role  query     string  false  "SENDER, RECEIVER or ADMIN"
// @Success      200   {object}  userListResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}
	list, err := h.queries.AdminListUsers(c.Request().Context(), caller, c.QueryParam("role"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserList(list))
}
