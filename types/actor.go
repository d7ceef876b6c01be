package types

import "facility-booking/models/user"

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	ID       string
	Role     string
	UserKind string
	Email    string
	Name     string
}

func (a Actor) IsStaff() bool {
	return user.IsStaffRole(a.Role)
}

// CanSee reports whether the actor may read a resource owned by ownerID.
func (a Actor) CanSee(ownerID string) bool {
	return a.IsStaff() || a.ID == ownerID
}
