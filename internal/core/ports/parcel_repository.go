package ports

import (
	"context"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

// ListParcelsFilter carries all query parameters for listing parcels.
type ListParcelsFilter struct {
	SenderID   string                // empty = any sender
	ReceiverID string                // empty = any receiver
	Statuses   []domain.ParcelStatus // empty = any status
	Search     string                // optional: partial match on tracking code, receiver name or city
	Page       int                   // 1-based
	Limit      int
}

// ParcelRepository defines persistence operations for parcels.
type ParcelRepository interface {
	// Create inserts a new parcel. It returns domain.ErrDuplicateTrackingCode
	// when the tracking code is already taken.
	Create(ctx context.Context, p *domain.Parcel) error
	FindByID(ctx context.Context, id string) (*domain.Parcel, error)
	FindByTrackingCode(ctx context.Context, code string) (*domain.Parcel, error)
	// Save persists the mutable fields of p if the stored version still equals
	// p.Version, then increments p.Version. A stale version yields
	// domain.ErrConcurrentModification.
	Save(ctx context.Context, p *domain.Parcel) error
	// List returns a page of parcels matching filter, newest first, and the total count.
	List(ctx context.Context, filter ListParcelsFilter) ([]*domain.Parcel, int64, error)
}
