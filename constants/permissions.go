package constants

// Permissions carried in the identity provider's token
const (
	PermAdminFull = "facility-booking.admin.full-permit"
	PermStaffFull = "facility-booking.staff.full-permit"
	PermUserFull  = "facility-booking.user.full-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	StaffPermissions = []string{
		PermAdminFull,
		PermStaffFull,
	}
)
