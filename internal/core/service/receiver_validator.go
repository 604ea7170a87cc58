package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// ReceiverPolicy selects how unregistered receivers are handled.
type ReceiverPolicy string

const (
	// ReceiverPolicyLenient lets parcels go to guest receivers.
	ReceiverPolicyLenient ReceiverPolicy = "lenient"
	// ReceiverPolicyStrict requires a registered receiver for every parcel.
	ReceiverPolicyStrict ReceiverPolicy = "strict"
)

// ParseReceiverPolicy maps a config value onto a policy. Anything other than
// "strict" is lenient.
func ParseReceiverPolicy(s string) ReceiverPolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(ReceiverPolicyStrict)) {
		return ReceiverPolicyStrict
	}
	return ReceiverPolicyLenient
}

// ReceiverValidator links the receiver declared on a new parcel to a
// registered account when one exists for the phone number.
type ReceiverValidator struct {
	users  ports.UserRepository
	policy ReceiverPolicy
}

func NewReceiverValidator(users ports.UserRepository, policy ReceiverPolicy) *ReceiverValidator {
	if policy != ReceiverPolicyStrict {
		policy = ReceiverPolicyLenient
	}
	return &ReceiverValidator{users: users, policy: policy}
}

// Resolve returns the registered receiver's id, or "" for a guest receiver.
func (v *ReceiverValidator) Resolve(ctx context.Context, info domain.ReceiverInfo) (string, error) {
	user, err := v.users.FindActiveReceiverByPhone(ctx, strings.TrimSpace(info.Phone))
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		if v.policy == ReceiverPolicyStrict {
			return "", fmt.Errorf("%w for phone %s", domain.ErrNoRegisteredReceiver, info.Phone)
		}
		return "", nil
	case err != nil:
		return "", fmt.Errorf("resolve receiver: %w", err)
	}

	var mismatched []string
	if !sameText(info.Name, user.Name) {
		mismatched = append(mismatched, "name")
	}
	if !sameText(info.Address, user.Address) {
		mismatched = append(mismatched, "address")
	}
	if !sameText(info.City, user.City) {
		mismatched = append(mismatched, "city")
	}
	if len(mismatched) > 0 {
		return "", fmt.Errorf("%w: %s differ from the registered profile", domain.ErrReceiverMismatch, strings.Join(mismatched, ", "))
	}
	return user.ID, nil
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
