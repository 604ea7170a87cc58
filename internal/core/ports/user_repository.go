package ports

import (
	"context"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

// UserFilter narrows a user listing. The zero value matches every account.
type UserFilter struct {
	Role domain.Role
	// ActiveOnly excludes deleted accounts and any status other than ACTIVE.
	ActiveOnly bool
}

// ProfileUpdate carries the contact fields a user may change. Empty fields
// are left as they are.
type ProfileUpdate struct {
	Phone   string
	Address string
	City    string
}

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindActiveReceiverByPhone returns a non-deleted, non-blocked RECEIVER
	// registered with phone, or domain.ErrUserNotFound.
	FindActiveReceiverByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// PhoneTaken reports whether phone is registered to any user other than excludeID.
	PhoneTaken(ctx context.Context, phone, excludeID string) (bool, error)
	// UpdateProfile applies the non-empty fields of update and returns the
	// stored user, or domain.ErrUserNotFound.
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	// List returns matching users newest first, with the total count.
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
}
