package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// User is the durable identity record. At most one user exists per email;
// the email index is the only lookup path by email.
//
// Field names are part of the stored-record contract shared with any other
// consumer of the same store.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty" validate:"max=150"`
	Email         string     `json:"email" validate:"required,email,max=200"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	Image         string     `json:"image,omitempty" validate:"max=500"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}
