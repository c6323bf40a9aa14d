package models

import "time"

// Role определяет доступ к маршрутам.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleTeam  Role = "team"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleTeam:
		return true
	}
	return false
}

// User is the persisted row of the users table. The password hash never leaves the service layer.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	AssignedTeamID *string   `json:"assigned_team_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Identity is what the identity provider knows about an authenticated principal.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile is the extended record loaded after authentication.
type Profile struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Role           Role    `json:"role"`
	AssignedTeamID *string `json:"assigned_team_id,omitempty"`
}

// AuthSession is an issued access token bound to an identity.
type AuthSession struct {
	AccessToken string    `json:"access_token"`
	TokenID     string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	Identity    *Identity `json:"user"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UserFilter struct {
	Role  *Role
	Page  int
	Limit int
}

type UserListResponse struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}
