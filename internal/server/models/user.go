// Package models holds the persistent record types shared by repositories
// and services.
package models

import (
	"database/sql"
	"time"
)

// User is the identity record. Email is unique across live users and
// immutable after creation. SessionID is present exactly while the user has
// an active session; ResetToken exactly while a password reset is
// outstanding. Both are unique across all users when set.
type User struct {
	ID                  string
	Email               string
	HashedPassword      []byte
	SessionID           sql.NullString
	ResetToken          sql.NullString
	ResetTokenExpiresAt sql.NullTime
	CreatedAt           time.Time
}
