package domain

// roleTransitions is the status transition table keyed by acting role.
// Pairs that are not listed are rejected.
var roleTransitions = map[Role]map[ParcelStatus][]ParcelStatus{
	RoleReceiver: {
		StatusRequested: {StatusApproved},
	},
	RoleAdmin: {
		StatusRequested: {StatusApproved, StatusOnHold, StatusCancelled},
		StatusApproved:  {StatusPickedUp},
		StatusPickedUp:  {StatusInTransit, StatusOnHold, StatusReturned},
		StatusInTransit: {StatusDelivered, StatusOnHold, StatusReturned},
		StatusOnHold:    {StatusPickedUp, StatusInTransit, StatusReturned},
	},
}

// ownerTransitions holds the self-service moves a sender or receiver may make
// on a parcel they own. Guests act with the receiver row.
var ownerTransitions = map[Role]map[ParcelStatus][]ParcelStatus{
	RoleSender: {
		StatusRequested: {StatusCancelled},
		StatusApproved:  {StatusCancelled},
	},
	RoleReceiver: {
		StatusRequested: {StatusApproved, StatusCancelled},
		StatusApproved:  {StatusCancelled},
	},
}

// IsTransitionAllowed reports whether role may move a parcel from one status
// to another under the role table.
func IsTransitionAllowed(from, to ParcelStatus, role Role) bool {
	return contains(roleTransitions[role][from], to)
}

// IsOwnerTransitionAllowed reports whether the owning sender or receiver may
// make the move on their own parcel.
func IsOwnerTransitionAllowed(from, to ParcelStatus, role Role) bool {
	return contains(ownerTransitions[role][from], to)
}

// AllowedTransitions lists the statuses role may reach from the given one
// under the role table.
func AllowedTransitions(from ParcelStatus, role Role) []ParcelStatus {
	return append([]ParcelStatus(nil), roleTransitions[role][from]...)
}

// AllowedOwnerTransitions is AllowedTransitions for the owner table.
func AllowedOwnerTransitions(from ParcelStatus, role Role) []ParcelStatus {
	return append([]ParcelStatus(nil), ownerTransitions[role][from]...)
}

func contains(list []ParcelStatus, s ParcelStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
