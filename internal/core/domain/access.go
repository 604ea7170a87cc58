package domain

import "strings"

// AnonymousActor is recorded as the author of ledger entries written by a
// guest receiver.
const AnonymousActor = "guest"

// Caller identifies who is invoking a parcel operation. It is either a
// Registered user resolved from a token or a Guest identified by phone.
type Caller interface {
	// ActorID is the value written to StatusLog.UpdatedBy.
	ActorID() string
	isCaller()
}

// Registered is an authenticated user.
type Registered struct {
	UserID string
	Role   Role
}

func (r Registered) ActorID() string { return r.UserID }
func (Registered) isCaller()         {}

// Guest is an unauthenticated receiver who proves identity with the phone
// number the sender declared.
type Guest struct {
	Phone string
}

func (Guest) ActorID() string { return AnonymousActor }
func (Guest) isCaller()       {}

// ResolveCaller builds a Caller from request identity. A user id always wins
// over a phone number; with neither the result is nil.
func ResolveCaller(userID string, role Role, phone string) Caller {
	if userID != "" {
		return Registered{UserID: userID, Role: role}
	}
	if p := strings.TrimSpace(phone); p != "" {
		return Guest{Phone: p}
	}
	return nil
}

// AuthorizeSender succeeds when the caller is the registered sender of p.
func AuthorizeSender(c Caller, p *Parcel) error {
	r, ok := c.(Registered)
	if !ok || r.UserID == "" || r.UserID != p.SenderID {
		return ErrUnauthorized
	}
	return nil
}

// AuthorizeReceiver succeeds when the caller is the receiver of p: either the
// linked registered receiver or a guest presenting the declared phone.
// A registered caller is never matched by phone.
func AuthorizeReceiver(c Caller, p *Parcel) error {
	switch v := c.(type) {
	case Registered:
		if p.ReceiverID != "" && v.UserID == p.ReceiverID {
			return nil
		}
	case Guest:
		phone := strings.TrimSpace(v.Phone)
		if phone != "" && phone == strings.TrimSpace(p.ReceiverInfo.Phone) {
			return nil
		}
	}
	return ErrUnauthorized
}

// AuthorizeAdmin succeeds for registered admins.
func AuthorizeAdmin(c Caller) error {
	if r, ok := c.(Registered); ok && r.Role == RoleAdmin {
		return nil
	}
	return ErrUnauthorized
}
