package models

import (
	"time"
)

// Lab represents a physical laboratory room owning a set of devices
type Lab struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(50);unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Devices []Device `gorm:"foreignKey:LabID" json:"devices,omitempty"`
}
