package domain

import "time"

type UserID string

// User is a registered account. PasswordHash is the scrypt digest in
// "hash.salt" hex form and never leaves the repository layer.
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}
