package ports

import (
	"context"
	"time"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

// ReceiverInput holds the receiver contact details declared by the sender.
type ReceiverInput struct {
	Name    string
	Phone   string
	Address string
	City    string
}

// DetailsInput holds what is being shipped.
type DetailsInput struct {
	Type        string
	WeightKg    float64
	Description string
}

// CreateParcelInput carries all data needed to create a new parcel.
type CreateParcelInput struct {
	Receiver             ReceiverInput
	Details              DetailsInput
	ExpectedDeliveryDate *time.Time
	IdempotencyKey       string
}

// CreateParcelResult is returned by the service after creating a parcel.
type CreateParcelResult struct {
	Parcel *domain.Parcel
	// AlreadyExisted is true when the Idempotency-Key matched an earlier request.
	AlreadyExisted bool
}

// TransitionInput carries the optional free-form fields recorded on the
// ledger entry. An empty Note is replaced by the operation's default note.
type TransitionInput struct {
	Note     string
	Location string
}

// ParcelService defines the parcel lifecycle use cases. Every mutating call
// returns the parcel as persisted.
type ParcelService interface {
	CreateParcel(ctx context.Context, caller domain.Caller, input CreateParcelInput) (*CreateParcelResult, error)

	ApproveParcel(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	DeclineParcel(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	CancelBySender(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)

	PickUp(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	StartTransit(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	Deliver(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	Return(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	Hold(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	Block(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	Unblock(ctx context.Context, caller domain.Caller, parcelID string, input TransitionInput) (*domain.Parcel, error)
	UpdateStatus(ctx context.Context, caller domain.Caller, parcelID string, to domain.ParcelStatus, input TransitionInput) (*domain.Parcel, error)
}
