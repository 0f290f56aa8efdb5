// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account that can own files and receive shares. PasswordHash is
// the argon2id digest of the credential and is never serialized to clients.
type User struct {
	ID           UserID
	Username     string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}
