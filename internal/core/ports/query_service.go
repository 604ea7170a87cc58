package ports

import (
	"context"
	"time"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

// TrackingView is the public projection of a parcel returned by tracking.
type TrackingView struct {
	TrackingCode         string             `json:"tracking_code"`
	ParcelType           string             `json:"parcel_type"`
	DestinationCity      string             `json:"destination_city"`
	CurrentStatus        string             `json:"current_status"`
	StatusHistory        []domain.StatusLog `json:"status_history"`
	CreatedAt            time.Time          `json:"created_at"`
	ExpectedDeliveryDate *time.Time         `json:"expected_delivery_date,omitempty"`
}

// AdminListInput carries the admin list query.
type AdminListInput struct {
	Search string
	Status string
	Page   int
	Limit  int
}

// ParcelPage is a page of parcels plus paging metadata.
type ParcelPage struct {
	Items      []*domain.Parcel
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserList is an unpaged list of accounts plus the matching count.
type UserList struct {
	Items []*domain.User
	Total int64
}

// QueryService serves the read side: tracking, per-actor lists and admin views.
type QueryService interface {
	TrackParcel(ctx context.Context, trackingCode string) (*TrackingView, error)

	GetSentParcel(ctx context.Context, caller domain.Caller, parcelID string) (*domain.Parcel, error)
	ListSentParcels(ctx context.Context, caller domain.Caller, page, limit int) (*ParcelPage, error)

	ListIncoming(ctx context.Context, caller domain.Caller) ([]*domain.Parcel, error)
	ListDeliveryHistory(ctx context.Context, caller domain.Caller) ([]*domain.Parcel, error)

	AdminGetParcel(ctx context.Context, caller domain.Caller, parcelID string) (*domain.Parcel, error)
	AdminListParcels(ctx context.Context, caller domain.Caller, input AdminListInput) (*ParcelPage, error)

	// ListReceivers is the sender's directory of registered receivers.
	ListReceivers(ctx context.Context, caller domain.Caller) (*UserList, error)
	// AdminListUsers lists every account, optionally narrowed to one role.
	AdminListUsers(ctx context.Context, caller domain.Caller, role string) (*UserList, error)
}
