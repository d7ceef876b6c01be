package user

import (
	"time"
)

// Roles carried in the identity provider's token.
const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// User is the local projection of an authenticated principal, upserted on every request.
type User struct {
	ID        string    `gorm:"type:varchar(255);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);index" json:"email"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Role      string    `gorm:"type:varchar(50);not null" json:"role"`
	UserKind  string    `gorm:"type:varchar(50)" json:"user_kind"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsStaffRole reports whether the role may decide bookings and manage facilities.
func IsStaffRole(role string) bool {
	return role == RoleStaff || role == RoleAdmin
}
