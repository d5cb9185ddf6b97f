// Package role implements role management: CRUD with permission sync,
// search, and the guards that keep the superuser role untouchable.
package role

import "time"

// Role is a named permission bundle.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Level       int       `json:"level"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput carries validated fields for creating a role.
type CreateInput struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Permissions []string `json:"permissions"`
}

// UpdateInput carries validated fields for updating a role. Nil
// slices leave the permission set untouched.
type UpdateInput struct {
	Name        string   `json:"name" binding:"omitempty,max=255"`
	Permissions []string `json:"permissions"`
}
