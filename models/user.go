package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleJoiner = "joiner"

	DefaultAvatarColor = "#0ea5e9"
)

// ============================================================================
// USER (TRAVELER PROFILE)
// ============================================================================

// User is a traveler profile. Owners have is_owner set and own themselves.
type User struct {
	ID          string    `json:"id"`
	AuthUserID  string    `json:"-"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	AvatarColor string    `json:"avatar_color"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"`
	IsOwner     bool      `json:"is_owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// OwnerScope is the owner id that rows created by this profile belong to.
func (u *User) OwnerScope() string {
	if u.OwnerID != "" {
		return u.OwnerID
	}
	return u.ID
}

// ============================================================================
// USER REQUESTS
// ============================================================================

// UserRequest is accepted as JSON or as multipart form fields.
type UserRequest struct {
	Name        string `json:"name" form:"name"`
	Email       string `json:"email" form:"email" binding:"omitempty,email"`
	Role        string `json:"role" form:"role" binding:"omitempty,oneof=admin joiner"`
	AvatarColor string `json:"avatar_color" form:"avatar_color" binding:"omitempty,hexcolor"`
}

type UserResponse struct {
	User    *User  `json:"user"`
	Warning string `json:"warning,omitempty"`
}
