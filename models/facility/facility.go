package facility

import (
	"time"
)

// Facility is a bookable room or venue.
type Facility struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Location     string    `gorm:"type:varchar(255);not null" json:"location"`
	Kind         string    `gorm:"type:varchar(100);not null;index" json:"kind"`
	Capacity     int       `gorm:"type:int;not null" json:"capacity"`
	Available    bool      `gorm:"not null" json:"available"`
	PricePerHour float64   `gorm:"type:numeric(12,2);not null" json:"price_per_hour"`
	Description  *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Facility model
func (Facility) TableName() string {
	return "facilities"
}
