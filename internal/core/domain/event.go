package domain

import "time"

// ParcelEvent is emitted after a parcel change has been persisted.
type ParcelEvent struct {
	ID           string       `json:"id"`
	ParcelID     string       `json:"parcel_id"`
	TrackingCode string       `json:"tracking_code"`
	Operation    string       `json:"operation"`
	Status       ParcelStatus `json:"status"`
	IsBlocked    bool         `json:"is_blocked"`
	UpdatedBy    string       `json:"updated_by"`
	Note         string       `json:"note,omitempty"`
	Location     string       `json:"location,omitempty"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

// Operation names carried by events and used as metric labels.
const (
	OpCreate       = "create"
	OpApprove      = "approve"
	OpDecline      = "decline"
	OpCancel       = "cancel"
	OpPickUp       = "pickup"
	OpStartTransit = "transit"
	OpDeliver      = "deliver"
	OpReturn       = "return"
	OpHold         = "hold"
	OpBlock        = "block"
	OpUnblock      = "unblock"
	OpUpdateStatus = "status"
)
