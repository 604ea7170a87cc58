package ports

import (
	"context"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

// RegisterInput carries the data needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	City     string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// EnsureAdmin creates the admin account if no user with email exists.
	EnsureAdmin(ctx context.Context, email, password string) error
	// UpdateProfile changes the caller's phone, address or city.
	UpdateProfile(ctx context.Context, caller domain.Caller, update ProfileUpdate) (*domain.User, error)
}
