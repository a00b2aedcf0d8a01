package models

import (
	"time"
)

// UserRole represents the role of a platform user
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleFaculty UserRole = "FACULTY"
	RoleStudent UserRole = "STUDENT"
)

// User represents lab platform accounts (admins, faculty and students)
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Email     string    `gorm:"type:varchar(100);unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(100);not null" json:"-"` // Password not exposed in JSON
	Role      UserRole  `gorm:"type:varchar(20);default:'STUDENT'" json:"role"`
	IDNumber  string    `gorm:"type:varchar(30)" json:"id_number"` // 校园学工号
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Commands []Command `gorm:"foreignKey:UserID" json:"commands,omitempty"`
}
