package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parceldesk/courier-system/internal/core/ports"
)

// TrackingHandler serves public parcel tracking.
type TrackingHandler struct {
	queries ports.QueryService
}

func NewTrackingHandler(queries ports.QueryService) *TrackingHandler {
	return &TrackingHandler{queries: queries}
}

// Track handles GET /v1/track/:tracking_code.
//
// @Summary      Track a parcel by tracking code
// @Description  Public endpoint. Blocked parcels cannot be tracked.
// @Tags         tracking
// @Produce      json
// @Param        tracking_code  path      string  true  "Tracking code (TRK-YYYYMMDD-NNNNNN)"
// @Success      200            {object}  trackingResponse
// @Failure      404            {object}  errorResponse
// @Failure      409            {object}  errorResponse
// @Router       /v1/track/{tracking_code} [get]
func (h *TrackingHandler) Track(c echo.Context) error {
	view, err := h.queries.TrackParcel(c.Request().Context(), c.Param("tracking_code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTrackingResponse(view))
}
