package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer    Role = "customer"
	RoleDesigner    Role = "designer"
	RoleDropshipper Role = "dropshipper"
	RoleAdmin       Role = "admin"
)

// Roles lists every role in a stable order, used for dashboard buckets.
var Roles = []Role{RoleCustomer, RoleDesigner, RoleDropshipper, RoleAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleDesigner, RoleDropshipper, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a role tag from a trusted source (config, admin input).
// Anything that is not one of the four roles falls back to customer.
func ParseRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if r.IsValid() {
		return r
	}
	return RoleCustomer
}

// ParseSignupRole normalizes a role the user picked for themselves, such as
// session metadata. Admin is never self-assigned and maps to customer.
func ParseSignupRole(raw string) Role {
	r := ParseRole(raw)
	if r == RoleAdmin {
		return RoleCustomer
	}
	return r
}

type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Synthesized is set when the profile was built from session metadata and
	// could not be persisted. Such a profile has no backing row.
	Synthesized bool `json:"synthesized,omitempty"`
}

func (p Profile) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PublicProfile is what other users get to see.
type PublicProfile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Profile) Public() PublicProfile {
	return PublicProfile{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
		Bio:       p.Bio,
		CreatedAt: p.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=80"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=80"`
	Bio       *string `json:"bio" binding:"omitempty,max=2000"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url,max=2048"`
}

type ListProfilesFilter struct {
	Role   *Role
	Query  *string
	Limit  int
	Offset int
}

// Account is a credential row for the built-in session provider. It carries
// the metadata that ends up in issued tokens.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	CreatedAt    time.Time
}

type SignupRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"firstName" binding:"required,min=1,max=80"`
	LastName  string `json:"lastName" binding:"omitempty,max=80"`
	Role      Role   `json:"role" binding:"omitempty,oneof=customer designer dropshipper"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}
