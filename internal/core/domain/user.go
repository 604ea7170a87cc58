package domain

import "time"

// Role is the actor class a user account is registered with.
type Role string

const (
	RoleSender   Role = "SENDER"
	RoleReceiver Role = "RECEIVER"
	RoleAdmin    Role = "ADMIN"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSender, RoleReceiver, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus is the administrative state of a user account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
	AccountBlocked  AccountStatus = "BLOCKED"
)

// User models an authenticated actor in the system.
type User struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone,omitempty"`
	Address       string        `json:"address,omitempty"`
	City          string        `json:"city,omitempty"`
	PasswordHash  string        `json:"-"`
	Role          Role          `json:"role"`
	AccountStatus AccountStatus `json:"account_status"`
	IsDeleted     bool          `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CanSignIn reports whether the account may authenticate.
func (u *User) CanSignIn() bool {
	return !u.IsDeleted && u.AccountStatus != AccountBlocked
}
