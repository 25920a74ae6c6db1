// File: internal/dtos/user.go
package dtos

import (
	"time"

	"github.com/iyunix/go-sage/internal/domain"
)

type SignupRequestDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponseDTO exposes a user without credentials.
type UserResponseDTO struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
}

func ToUserResponse(u *domain.User) UserResponseDTO {
	return UserResponseDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		OwnerID:   u.OwnerID(),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
