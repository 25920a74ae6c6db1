// File: internal/domain/user.go
package domain

import (
	"errors"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

type User struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	FirstName string    `json:"firstName" gorm:"size:100"`
	LastName  string    `json:"lastName" gorm:"size:100"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnerID is the identifier stamped on chats this user owns.
func (u *User) OwnerID() string {
	return "user:" + strconv.FormatUint(uint64(u.ID), 10)
}

// HashPassword securely hashes the user's password.
func (u *User) HashPassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// ValidatePassword compares a plain-text password with the stored hash.
func (u *User) ValidatePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}
