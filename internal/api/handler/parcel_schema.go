package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type receiverRequest struct {
	Name    string `json:"name"    validate:"required,max=120"`
	Phone   string `json:"phone"   validate:"required,max=32"`
	Address string `json:"address" validate:"required,max=250"`
	City    string `json:"city"    validate:"required,max=80"`
}

type detailsRequest struct {
	Type        string  `json:"type"        validate:"required,max=60"`
	WeightKg    float64 `json:"weight_kg"   validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=500"`
}

type createParcelRequest struct {
	Receiver             receiverRequest `json:"receiver_info"          validate:"required"`
	Details              detailsRequest  `json:"parcel_details"         validate:"required"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date"`
}

type transitionRequest struct {
	Note     string `json:"note"     validate:"max=500"`
	Location string `json:"location" validate:"max=120"`
}

type guestRequest struct {
	Phone    string `json:"phone"    validate:"omitempty,max=32"`
	Note     string `json:"note"     validate:"max=500"`
	Location string `json:"location" validate:"max=120"`
}

type statusRequest struct {
	Status   string `json:"status"   validate:"required,parcel_status"`
	Note     string `json:"note"     validate:"max=500"`
	Location string `json:"location" validate:"max=120"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract does not follow
// internal changes to the domain model.

type receiverResponse struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

type detailsResponse struct {
	Type        string  `json:"type"`
	WeightKg    float64 `json:"weight_kg"`
	Description string  `json:"description,omitempty"`
}

type statusLogResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedBy string    `json:"updated_by"`
	Location  string    `json:"location,omitempty"`
	Note      string    `json:"note,omitempty"`
}

type parcelLinks struct {
	Self  string `json:"self"`
	Track string `json:"track"`
}

type parcelResponse struct {
	ID                   string              `json:"id"`
	TrackingCode         string              `json:"tracking_code"`
	SenderID             string              `json:"sender_id"`
	ReceiverID           string              `json:"receiver_id,omitempty"`
	Receiver             receiverResponse    `json:"receiver_info"`
	Details              detailsResponse     `json:"parcel_details"`
	Fee                  float64             `json:"fee"`
	CurrentStatus        string              `json:"current_status"`
	IsBlocked            bool                `json:"is_blocked"`
	StatusHistory        []statusLogResponse `json:"status_history"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Links                parcelLinks         `json:"_links"`
}

type parcelListResponse struct {
	Items []parcelResponse `json:"items"`
	Count int              `json:"count"`
}

type parcelPageResponse struct {
	Items      []parcelResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

type trackingResponse struct {
	TrackingCode         string              `json:"tracking_code"`
	ParcelType           string              `json:"parcel_type"`
	DestinationCity      string              `json:"destination_city"`
	CurrentStatus        string              `json:"current_status"`
	StatusHistory        []statusLogResponse `json:"status_history"`
	CreatedAt            time.Time           `json:"created_at"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
}
