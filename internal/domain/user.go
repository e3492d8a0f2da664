package domain

import "time"

// User is an account that owns todos. Username is stored lowercased;
// PasswordHash is a bcrypt hash and never leaves the server.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
