package models

import (
	"time"
)

// CommandStatus represents the outcome of one relay control attempt
type CommandStatus string

const (
	CommandStatusCompleted CommandStatus = "completed"
	CommandStatusFailed    CommandStatus = "failed"
)

// Command represents one attempted relay control command. Rows are
// append-only: every attempt produces exactly one row, whether or not
// the device answered.
type Command struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"not null;index" json:"user_id"`
	DeviceID    uint          `gorm:"not null;index" json:"device_id"`
	Command     string        `gorm:"type:varchar(10);not null" json:"command"` // "on" 或 "off"
	Status      CommandStatus `gorm:"type:varchar(20);not null" json:"status"`
	RequestedAt time.Time     `gorm:"autoCreateTime;index" json:"requested_at"` // 历史视图的唯一排序键

	// Relations
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Device *Device `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}
