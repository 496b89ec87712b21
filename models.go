package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleEmployee is the default role for registered users
	RoleEmployee UserRole = "employee"
	// RoleAdmin is the administrative role
	RoleAdmin UserRole = "admin"
)

// ValidRole checks if the role is one of the predefined valid roles
func ValidRole(role string) bool {
	switch role {
	case RoleEmployee, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the user model. The password hash never serializes to JSON, and
// the record is read-only after creation: registration is the only write
// path this service exposes.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Department    string     `bun:"department,nullzero" json:"department,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
