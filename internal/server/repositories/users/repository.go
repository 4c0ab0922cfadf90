// Package users declares the server-side account store contract. It is the
// sole synchronization boundary of the service: uniqueness of email, session
// tokens, and reset tokens is enforced here, at the storage layer.
package users

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// UpdateFields describes a partial update of a user record. A nil field is
// left unchanged; a non-nil sql.Null* with Valid=false clears the column to
// NULL, so releasing a session or a reset token is an explicit write, not a
// no-op.
type UpdateFields struct {
	HashedPassword      []byte
	SessionID           *sql.NullString
	ResetToken          *sql.NullString
	ResetTokenExpiresAt *sql.NullTime
}

// Empty reports whether the update carries no changes.
func (f UpdateFields) Empty() bool {
	return f.HashedPassword == nil && f.SessionID == nil &&
		f.ResetToken == nil && f.ResetTokenExpiresAt == nil
}

// Repository defines operations over persistent user records.
type Repository interface {
	// Create inserts a new user. The existence check and the insert are one
	// atomic unit: a concurrent insert of the same email surfaces as
	// common.ErrEmailAlreadyExists, never as a duplicate row.
	Create(ctx context.Context, email string, hashedPassword []byte) (*models.User, error)

	// GetByID returns the user with the given surrogate key, or
	// common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail returns the user with the given email, or common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetBySessionID returns the user owning the given session token, or
	// common.ErrNotFound. Records whose session column is NULL never match.
	GetBySessionID(ctx context.Context, sessionID string) (*models.User, error)

	// GetByResetToken returns the user owning the given reset token, or
	// common.ErrNotFound.
	GetByResetToken(ctx context.Context, token string) (*models.User, error)

	// Update applies a partial update to one record as a single statement.
	// An unknown userID yields common.ErrNotFound.
	Update(ctx context.Context, userID string, fields UpdateFields) error

	// ConsumeResetToken stores the new password hash and clears the reset
	// token and its expiry, guarded on the token itself: of any number of
	// concurrent consumers of the same token, exactly one succeeds. A token
	// that is absent, already consumed, or superseded yields
	// common.ErrNotFound.
	ConsumeResetToken(ctx context.Context, resetToken string, hashedPassword []byte) error
}
