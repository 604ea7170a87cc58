package domain

import (
	"time"
)

// ParcelStatus represents the lifecycle state of a parcel.
type ParcelStatus string

const (
	StatusRequested ParcelStatus = "REQUESTED"
	StatusApproved  ParcelStatus = "APPROVED"
	StatusPickedUp  ParcelStatus = "PICKED_UP"
	StatusInTransit ParcelStatus = "IN_TRANSIT"
	StatusDelivered ParcelStatus = "DELIVERED"
	StatusCancelled ParcelStatus = "CANCELLED"
	StatusReturned  ParcelStatus = "RETURNED"
	StatusOnHold    ParcelStatus = "ON_HOLD"
)

// AllStatuses lists every parcel status in lifecycle order.
var AllStatuses = []ParcelStatus{
	StatusRequested,
	StatusApproved,
	StatusPickedUp,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
	StatusReturned,
	StatusOnHold,
}

// IsValid reports whether s is one of the known statuses.
func (s ParcelStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s ParcelStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// ReceiverInfo is the receiver contact snapshot declared by the sender.
type ReceiverInfo struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
}

// ParcelDetails describes what is being shipped.
type ParcelDetails struct {
	Type        string  `json:"type" bson:"type"`
	WeightKg    float64 `json:"weight_kg" bson:"weight_kg"`
	Description string  `json:"description" bson:"description"`
}

// StatusLog records a single status transition on a parcel.
type StatusLog struct {
	Status    ParcelStatus `json:"status" bson:"status"`
	Timestamp time.Time    `json:"timestamp" bson:"timestamp"`
	UpdatedBy string       `json:"updated_by" bson:"updated_by"`
	Location  string       `json:"location,omitempty" bson:"location,omitempty"`
	Note      string       `json:"note,omitempty" bson:"note,omitempty"`
}

// Parcel is the core aggregate root.
type Parcel struct {
	ID                   string        `json:"id" bson:"_id"`
	TrackingCode         string        `json:"tracking_code" bson:"tracking_code"`
	SenderID             string        `json:"sender_id" bson:"sender_id"`
	ReceiverID           string        `json:"receiver_id,omitempty" bson:"receiver_id,omitempty"`
	ReceiverInfo         ReceiverInfo  `json:"receiver_info" bson:"receiver_info"`
	Details              ParcelDetails `json:"parcel_details" bson:"parcel_details"`
	Fee                  float64       `json:"fee" bson:"fee"`
	CurrentStatus        ParcelStatus  `json:"current_status" bson:"current_status"`
	StatusHistory        []StatusLog   `json:"status_history" bson:"status_history"`
	IsBlocked            bool          `json:"is_blocked" bson:"is_blocked"`
	ExpectedDeliveryDate *time.Time    `json:"expected_delivery_date,omitempty" bson:"expected_delivery_date,omitempty"`
	CreatedAt            time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" bson:"updated_at"`
	Version              int64         `json:"-" bson:"version"`
}

// LastLog returns the most recent ledger entry, or false when the ledger is empty.
func (p *Parcel) LastLog() (StatusLog, bool) {
	if len(p.StatusHistory) == 0 {
		return StatusLog{}, false
	}
	return p.StatusHistory[len(p.StatusHistory)-1], true
}

// Change is a lifecycle mutation computed before it is applied: the resulting
// status, the blocked flag and the ledger entry that records them.
type Change struct {
	Status  ParcelStatus
	Blocked bool
	Entry   StatusLog
}

// Apply commits c to the parcel. Status, flag and ledger move together so a
// parcel is never observed with one of them updated and not the others.
func (p *Parcel) Apply(c Change) {
	p.CurrentStatus = c.Status
	p.IsBlocked = c.Blocked
	p.StatusHistory = append(p.StatusHistory, c.Entry)
	p.UpdatedAt = c.Entry.Timestamp
}

// Clone returns a deep copy so callers can mutate without aliasing the
// ledger slice of the original.
func (p *Parcel) Clone() *Parcel {
	if p == nil {
		return nil
	}
	out := *p
	out.StatusHistory = append([]StatusLog(nil), p.StatusHistory...)
	if p.ExpectedDeliveryDate != nil {
		d := *p.ExpectedDeliveryDate
		out.ExpectedDeliveryDate = &d
	}
	return &out
}
