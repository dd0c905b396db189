// Package model defines the core domain models used throughout the application.
package model

// User is a registered account. PasswordHash is a bcrypt digest and never
// leaves the storage and account layers.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	ID           int64  `json:"id"`
}
