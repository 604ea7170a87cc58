package handler

import (
	"errors"

	"github.com/parceldesk/courier-system/internal/api/metrics"
	"github.com/parceldesk/courier-system/internal/core/domain"
)

func observeTransition(op string, p *domain.Parcel, err error) {
	if err != nil {
		metrics.ParcelTransitionErrorsTotal.WithLabelValues(op, errorReason(err)).Inc()
		return
	}
	metrics.ParcelTransitionsTotal.WithLabelValues(op, string(p.CurrentStatus)).Inc()
}

func observeCreated(p *domain.Parcel) {
	kind := "guest"
	if p.ReceiverID != "" {
		kind = "registered"
	}
	metrics.ParcelsCreatedTotal.WithLabelValues(kind).Inc()
}

// errorReason classifies a service error into a low-cardinality label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrParcelNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
