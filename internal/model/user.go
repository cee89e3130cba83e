package model

import "time"

// User is an account. AuthToken and Password are hidden from JSON responses.
type User struct {
	ID        string    `json:"id"         db:"id"`
	Username  string    `json:"username"   db:"username"`
	Email     string    `json:"email"      db:"email"`
	AuthToken string    `json:"-"          db:"auth_token"`
	Password  string    `json:"-"          db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
