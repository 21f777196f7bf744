package models

import (
	"time"
)

// User roles. Stored lowercase in the users.role column.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
)

// User represents a profile row in the users table.
type User struct {
	ID         string     `json:"id" db:"id"`
	Email      string     `json:"email" db:"email"`
	FullName   string     `json:"full_name" db:"full_name"`
	Role       string     `json:"role" db:"role"`
	AvatarURL  *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	LastSeen   *time.Time `json:"last_seen,omitempty" db:"last_seen"`
	IsOnline   bool       `json:"is_online" db:"is_online"`
	Department *string    `json:"department,omitempty" db:"department"`
	Phone      *string    `json:"phone,omitempty" db:"phone"`
	Timezone   *string    `json:"timezone,omitempty" db:"timezone"`
}

// IsAgent reports whether the user holds the agent role.
func (u *User) IsAgent() bool { return u.Role == RoleAgent }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ValidateRole checks a role string against the known set.
func ValidateRole(role string) bool {
	switch role {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// UserWithStats decorates a user with per-agent counters for admin views.
type UserWithStats struct {
	User
	AssignedTickets int `json:"assigned_tickets"`
	ResolvedTickets int `json:"resolved_tickets"`
}

// SignUpRequest is the payload for POST /auth/signup.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required,min=1,max=255"`
	Role     string `json:"role,omitempty"`
}

// SignInRequest is the payload for POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is a partial patch of the caller's profile row.
type UpdateProfileRequest struct {
	FullName   *string `json:"full_name,omitempty" binding:"omitempty,min=1,max=255"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
	Timezone   *string `json:"timezone,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
}

// AuthResponse is returned by sign-up, sign-in and token refresh.
type AuthResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	User         *User     `json:"user"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Organization represents a row in the organizations table.
type Organization struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Domain    *string   `json:"domain,omitempty" db:"domain"`
	Plan      string    `json:"plan" db:"plan"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Settings  JSONMap   `json:"settings,omitempty" db:"settings"`
}

// Organization plans.
const (
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)
