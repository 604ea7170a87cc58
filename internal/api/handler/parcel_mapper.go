package handler

import (
	"strings"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createParcelRequest, idempotencyKey string) ports.CreateParcelInput {
	return ports.CreateParcelInput{
		Receiver: ports.ReceiverInput{
			Name:    req.Receiver.Name,
			Phone:   req.Receiver.Phone,
			Address: req.Receiver.Address,
			City:    req.Receiver.City,
		},
		Details: ports.DetailsInput{
			Type:        req.Details.Type,
			WeightKg:    req.Details.WeightKg,
			Description: req.Details.Description,
		},
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		IdempotencyKey:       strings.TrimSpace(idempotencyKey),
	}
}

func toTransitionInput(req transitionRequest) ports.TransitionInput {
	return ports.TransitionInput{Note: req.Note, Location: req.Location}
}

// --- Service result → HTTP response ---

func toParcelResponse(p *domain.Parcel) parcelResponse {
	return parcelResponse{
		ID:           p.ID,
		TrackingCode: p.TrackingCode,
		SenderID:     p.SenderID,
		ReceiverID:   p.ReceiverID,
		Receiver: receiverResponse{
			Name:    p.ReceiverInfo.Name,
			Phone:   p.ReceiverInfo.Phone,
			Address: p.ReceiverInfo.Address,
			City:    p.ReceiverInfo.City,
		},
		Details: detailsResponse{
			Type:        p.Details.Type,
			WeightKg:    p.Details.WeightKg,
			Description: p.Details.Description,
		},
		Fee:                  p.Fee,
		CurrentStatus:        string(p.CurrentStatus),
		IsBlocked:            p.IsBlocked,
		StatusHistory:        toStatusLogs(p.StatusHistory),
		ExpectedDeliveryDate: p.ExpectedDeliveryDate,
		CreatedAt:            p.CreatedAt.UTC(),
		UpdatedAt:            p.UpdatedAt.UTC(),
		Links: parcelLinks{
			Self:  "/v1/parcels/sent/" + p.ID,
			Track: "/v1/track/" + p.TrackingCode,
		},
	}
}

func toParcelList(items []*domain.Parcel) parcelListResponse {
	out := make([]parcelResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toParcelResponse(p))
	}
	return parcelListResponse{Items: out, Count: len(out)}
}

func toParcelPage(page *ports.ParcelPage) parcelPageResponse {
	list := toParcelList(page.Items)
	return parcelPageResponse{
		Items:      list.Items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

func toTrackingResponse(v *ports.TrackingView) trackingResponse {
	return trackingResponse{
		TrackingCode:         v.TrackingCode,
		ParcelType:           v.ParcelType,
		DestinationCity:      v.DestinationCity,
		CurrentStatus:        v.CurrentStatus,
		StatusHistory:        toStatusLogs(v.StatusHistory),
		CreatedAt:            v.CreatedAt.UTC(),
		ExpectedDeliveryDate: v.ExpectedDeliveryDate,
	}
}

func toStatusLogs(logs []domain.StatusLog) []statusLogResponse {
	out := make([]statusLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, statusLogResponse{
			Status:    string(l.Status),
			Timestamp: l.Timestamp.UTC(),
			UpdatedBy: l.UpdatedBy,
			Location:  l.Location,
			Note:      l.Note,
		})
	}
	return out
}
