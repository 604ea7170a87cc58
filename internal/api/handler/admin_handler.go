package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// AdminHandler serves the courier operations endpoints.
type AdminHandler struct {
	parcels ports.ParcelService
	queries ports.QueryService
}

func NewAdminHandler(parcels ports.ParcelService, queries ports.QueryService) *AdminHandler {
	return &AdminHandler{parcels: parcels, queries: queries}
}

// List handles GET /v1/admin/parcels.
//
// @Summary      List all parcels
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Partial match on tracking code, receiver name or city"
// @Param        status  query     string  false  "Filter by current status"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  parcelPageResponse
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Router       /v1/admin/parcels [get]
func (h *AdminHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	in := ports.AdminListInput{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
	}
	if err := echo.QueryParamsBinder(c).Int("page", &in.Page).Int("limit", &in.Limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}

	result, err := h.queries.AdminListParcels(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelPage(result))
}

// Get handles GET /v1/admin/parcels/:id.
//
// @Summary      Get any parcel
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Parcel ID"
// @Success      200  {object}  parcelResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/parcels/{id} [get]
func (h *AdminHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	p, err := h.queries.AdminGetParcel(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(p))
}

// PickUp handles PATCH /v1/admin/parcels/:id/pickup.
//
// @Summary      Mark an approved parcel as picked up
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note and location"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/pickup [patch]
func (h *AdminHandler) PickUp(c echo.Context) error {
	return runTransition(c, domain.OpPickUp, h.parcels.PickUp)
}

// StartTransit handles PATCH /v1/admin/parcels/:id/transit.
//
// @Summary      Mark a picked-up parcel as in transit
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note and location"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/transit [patch]
func (h *AdminHandler) StartTransit(c echo.Context) error {
	return runTransition(c, domain.OpStartTransit, h.parcels.StartTransit)
}

// Deliver handles PATCH /v1/admin/parcels/:id/deliver.
//
// @Summary      Mark an in-transit parcel as delivered
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note and location"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/deliver [patch]
func (h *AdminHandler) Deliver(c echo.Context) error {
	return runTransition(c, domain.OpDeliver, h.parcels.Deliver)
}

// Return handles PATCH /v1/admin/parcels/:id/return.
//
// @Summary      Return a parcel to its sender
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note and location"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/return [patch]
func (h *AdminHandler) Return(c echo.Context) error {
	return runTransition(c, domain.OpReturn, h.parcels.Return)
}

// Hold handles PATCH /v1/admin/parcels/:id/hold.
//
// @Summary      Put a parcel on hold
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note and location"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/hold [patch]
func (h *AdminHandler) Hold(c echo.Context) error {
	return runTransition(c, domain.OpHold, h.parcels.Hold)
}

// Block handles PATCH /v1/admin/parcels/:id/block.
//
// @Summary      Block a parcel
// @Description  Approved, picked-up and in-transit parcels are also moved to ON_HOLD.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/block [patch]
func (h *AdminHandler) Block(c echo.Context) error {
	return runTransition(c, domain.OpBlock, h.parcels.Block)
}

// Unblock handles PATCH /v1/admin/parcels/:id/unblock.
//
// @Summary      Unblock a parcel
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/unblock [patch]
func (h *AdminHandler) Unblock(c echo.Context) error {
	return runTransition(c, domain.OpUnblock, h.parcels.Unblock)
}

// UpdateStatus handles PATCH /v1/admin/parcels/:id/status.
//
// @Summary      Move a parcel to any status the admin policy allows
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Parcel ID"
// @Param        body  body      statusRequest  true  "Target status"
// @Success      200   {object}  parcelResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/parcels/{id}/status [patch]
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	to := domain.ParcelStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	p, err := h.parcels.UpdateStatus(c.Request().Context(), caller, c.Param("id"), to, ports.TransitionInput{
		Note:     req.Note,
		Location: req.Location,
	})
	observeTransition(domain.OpUpdateStatus, p, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(p))
}
