// Package user implements user account management: CRUD, search, role
// assignment, the trash lifecycle and the deletion cascade.
package user

import "time"

// User represents a user account. Roles are loaded alongside the row;
// the password hash never serializes.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	Roles           []string   `json:"roles"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// EmailVerified reports whether the account's email is verified.
func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// CreateInput carries validated fields for creating a user.
type CreateInput struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=client staff admin"`
}

// UpdateInput carries validated fields for updating a user. Both
// fields are optional; empty values leave the column untouched.
type UpdateInput struct {
	Name  string `json:"name" binding:"omitempty,max=255"`
	Email string `json:"email" binding:"omitempty,email,max=255"`
}

// AssignRoleInput carries the role assignment payload.
type AssignRoleInput struct {
	Role string `json:"role" binding:"required,oneof=client staff admin"`
}
