package transport

import (
	"time"

	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"max=200"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetRolesRequest replaces the roles of a user. ExpiresAt applies to every
// role in the request; omit it for permanent roles.
type SetRolesRequest struct {
	Roles     []string   `json:"roles" validate:"required,min=1,dive,notblank"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type AuthResponse struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType"`
	ExpiresIn   int64    `json:"expiresIn"`
	Roles       []string `json:"roles"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RolesResponse struct {
	UserID uuid.UUID `json:"userId"`
	Roles  []string  `json:"roles"`
}

type LinkLeadsResponse struct {
	Linked int `json:"linked"`
}

type CleanupResponse struct {
	Removed int64 `json:"removed"`
}
