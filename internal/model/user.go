package model

import (
	"time"

	"github.com/google/uuid"
)

// Role enum constants. Executives raise enquiries, procurement prices them.
const (
	RoleExecutive   = "executive"
	RoleProcurement = "procurement"
)

// ValidRole reports whether role is one of the two supported roles
func ValidRole(role string) bool {
	return role == RoleExecutive || role == RoleProcurement
}

// User represents an authenticated subject of the system
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
