package models

import (
	"time"
)

// Device represents a relay-switchable lab device wired to one GPIO pin
// of the lab's ESP32 controller. PinNumber is unique across all devices.
type Device struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"type:varchar(50);not null" json:"name"`
	PinNumber         int       `gorm:"unique;not null" json:"pin_number"`
	AllowedForFaculty bool      `gorm:"default:true" json:"allowed_for_faculty"` // FACULTY角色是否可控制该设备
	LabID             uint      `gorm:"not null" json:"lab_id"`
	LastKnownState    bool      `gorm:"default:false" json:"last_known_state"` // 仅由中继控制流程更新
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	Lab      *Lab      `gorm:"foreignKey:LabID" json:"lab,omitempty"`
	Commands []Command `gorm:"foreignKey:DeviceID" json:"commands,omitempty"`
}
