package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// ParcelHandler serves the sender, receiver and guest parcel endpoints.
type ParcelHandler struct {
	parcels ports.ParcelService
	queries ports.QueryService
}

func NewParcelHandler(parcels ports.ParcelService, queries ports.QueryService) *ParcelHandler {
	return &ParcelHandler{parcels: parcels, queries: queries}
}

type transitionFunc func(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error)

// Create handles POST /v1/parcels.
//
// @Summary      Create a parcel request
// @Description  Creates a parcel in REQUESTED status. A repeated Idempotency-Key
// @Description  returns the parcel created by the first request with 200.
// @Tags         parcels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string               false  "Idempotency key"
// @Param        body             body      createParcelRequest  true   "Parcel request"
// @Success      201              {object}  parcelResponse
// @Success      200              {object}  parcelResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/parcels [post]
func (h *ParcelHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req createParcelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	result, err := h.parcels.CreateParcel(c.Request().Context(), caller, toCreateInput(req, idempotencyKey))
	if err != nil {
		return err
	}

	if result.AlreadyExisted {
		return c.JSON(http.StatusOK, toParcelResponse(result.Parcel))
	}
	observeCreated(result.Parcel)
	return c.JSON(http.StatusCreated, toParcelResponse(result.Parcel))
}

// ListSent handles GET /v1/parcels/sent.
//
// @Summary      List parcels sent by the caller
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (1-based)"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {object}  parcelPageResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /v1/parcels/sent [get]
func (h *ParcelHandler) ListSent(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var page, limit int
	if err := echo.QueryParamsBinder(c).Int("page", &page).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}

	result, err := h.queries.ListSentParcels(c.Request().Context(), caller, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelPage(result))
}

// GetSent handles GET /v1/parcels/sent/:id.
//
// @Summary      Get a parcel sent by the caller
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Parcel ID"
// @Success      200  {object}  parcelResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/sent/{id} [get]
func (h *ParcelHandler) GetSent(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	p, err := h.queries.GetSentParcel(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(p))
}

// Cancel handles PATCH /v1/parcels/:id/cancel.
//
// @Summary      Cancel a parcel as its sender
// @Tags         parcels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/parcels/{id}/cancel [patch]
func (h *ParcelHandler) Cancel(c echo.Context) error {
	return runTransition(c, domain.OpCancel, h.parcels.CancelBySender)
}

// ListIncoming handles GET /v1/parcels/incoming.
//
// @Summary      List parcels awaiting or on their way to the caller
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  parcelListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/parcels/incoming [get]
func (h *ParcelHandler) ListIncoming(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	items, err := h.queries.ListIncoming(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelList(items))
}

// ListHistory handles GET /v1/parcels/history.
//
// @Summary      List the caller's delivered parcels
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  parcelListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/parcels/history [get]
func (h *ParcelHandler) ListHistory(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	items, err := h.queries.ListDeliveryHistory(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelList(items))
}

// Approve handles PATCH /v1/parcels/:id/approve.
//
// @Summary      Approve a parcel as its registered receiver
// @Tags         parcels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/parcels/{id}/approve [patch]
func (h *ParcelHandler) Approve(c echo.Context) error {
	return runTransition(c, domain.OpApprove, h.parcels.ApproveParcel)
}

// Decline handles PATCH /v1/parcels/:id/decline.
//
// @Summary      Decline a parcel as its registered receiver
// @Tags         parcels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "Parcel ID"
// @Param        body  body      transitionRequest  false  "Optional note"
// @Success      200   {object}  parcelResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/parcels/{id}/decline [patch]
func (h *ParcelHandler) Decline(c echo.Context) error {
	return runTransition(c, domain.OpDecline, h.parcels.DeclineParcel)
}

// GuestApprove handles PATCH /v1/guest/parcels/:id/approve.
//
// @Summary      Approve a parcel as a guest receiver
// @Description  The guest proves identity with the phone number the sender declared.
// @Description  A valid bearer token takes precedence over the phone.
// @Tags         guest
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Parcel ID"
// @Param        body  body      guestRequest  true  "Receiver phone"
// @Success      200   {object}  parcelResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/guest/parcels/{id}/approve [patch]
func (h *ParcelHandler) GuestApprove(c echo.Context) error {
	return runGuestTransition(c, domain.OpApprove, h.parcels.ApproveParcel)
}

// GuestDecline handles PATCH /v1/guest/parcels/:id/decline.
//
// @Summary      Decline a parcel as a guest receiver
// @Tags         guest
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Parcel ID"
// @Param        body  body      guestRequest  true  "Receiver phone and optional note"
// @Success      200   {object}  parcelResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/guest/parcels/{id}/decline [patch]
func (h *ParcelHandler) GuestDecline(c echo.Context) error {
	return runGuestTransition(c, domain.OpDecline, h.parcels.DeclineParcel)
}

func runTransition(c echo.Context, op string, fn transitionFunc) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := fn(c.Request().Context(), caller, c.Param("id"), toTransitionInput(req))
	observeTransition(op, p, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(p))
}

func runGuestTransition(c echo.Context, op string, fn transitionFunc) error {
	var req guestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	caller, err := guestCaller(c, req.Phone)
	if err != nil {
		return err
	}

	p, err := fn(c.Request().Context(), caller, c.Param("id"), ports.TransitionInput{Note: req.Note, Location: req.Location})
	observeTransition(op, p, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParcelResponse(p))
}
