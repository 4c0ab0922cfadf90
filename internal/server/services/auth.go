// Package services contains server-side business logic. AuthService is the
// single owner of credential and session lifecycle rules: registration,
// login verification, session issuance and revocation, and the
// password-reset token flow. Nothing else touches the account store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// AuthService provides authentication-related operations:
//   - Register: create users with hashed credentials
//   - Authenticate / VerifyCredentials: check a login attempt
//   - CreateSession / ResolveSession / DestroySession: opaque session tokens
//   - RequestPasswordReset / ConsumePasswordReset: single-use reset tokens
type AuthService struct {
	db                  *sql.DB
	repomanager         repomanager.RepositoryManager
	logger              logging.Logger
	bcryptCost          int
	resetTokenValidity  time.Duration
	accessTokenValidity time.Duration
	jwtSecret           []byte

	// dummyHash is compared against when the account does not exist, so a
	// failed lookup burns the same bcrypt time as a failed password.
	dummyHash []byte
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *AuthService {
	dummy, err := cryptox.HashPassword("no-such-user", cfg.BcryptCost)
	if err != nil {
		// cost above bcrypt's maximum; the clamped default cannot fail
		dummy, _ = cryptox.HashPassword("no-such-user", 0)
	}
	return &AuthService{
		db:                  db,
		repomanager:         m,
		logger:              l.With("module", "auth_service"),
		bcryptCost:          cfg.BcryptCost,
		resetTokenValidity:  cfg.ResetTokenValidityDuration,
		accessTokenValidity: cfg.AccessTokenValidityDuration,
		jwtSecret:           []byte(cfg.SecretKey),
		dummyHash:           dummy,
	}
}

// Register creates a new user with the given email and password. The
// password is hashed before any store interaction; the plaintext is never
// persisted or logged. A duplicate email yields common.ErrEmailAlreadyExists
// even when two registrations race: uniqueness is enforced by the store, not
// by a lookup here.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := cryptox.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, common.ErrEmailAlreadyExists) {
			return nil, common.ErrEmailAlreadyExists
		}
		s.logger.Error(ctx, "user creation failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	return user, nil
}

// VerifyCredentials returns the user when email and password match a live
// account. A missing account and a wrong password are deliberately
// indistinguishable: both yield common.ErrorUnauthorized, and the missing
// case still runs a bcrypt comparison so response timing does not reveal
// account existence. Store failures other than not-found surface as
// common.ErrorInternal, never as an authentication failure.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			cryptox.CheckPassword(password, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "credential lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if !cryptox.CheckPassword(password, user.HashedPassword) {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// Authenticate reports whether the email/password pair is valid. Persistence
// errors are not masked as a false result; they propagate so callers can
// answer with a server error instead of "wrong credentials".
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (bool, error) {
	_, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateSession issues a fresh opaque session token for the user with the
// given email and persists it on the record, overwriting (and thereby
// invalidating) any prior session. There is at most one live session per
// user.
func (s *AuthService) CreateSession(ctx context.Context, email string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		s.logger.Error(ctx, "session lookup failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	token, err := common.MakeRandHexString(common.TokenByteLength)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	err = repo.Update(ctx, user.ID, users.UpdateFields{
		SessionID: &sql.NullString{String: token, Valid: true},
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		s.logger.Error(ctx, "session persist failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	return token, nil
}

// ResolveSession returns the user owning the given session token. It is the
// sole session-validation entry point and performs no writes. An empty or
// unknown token yields common.ErrInvalidSession.
func (s *AuthService) ResolveSession(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, common.ErrInvalidSession
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidSession
		}
		s.logger.Error(ctx, "session resolution failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	return user, nil
}

// DestroySession clears the user's session token. Destroying an
// already-absent session succeeds; only an unknown user id is an error.
func (s *AuthService) DestroySession(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)
	err := repo.Update(ctx, userID, users.UpdateFields{
		SessionID: &sql.NullString{},
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		s.logger.Error(ctx, "session destroy failed", "error", err.Error())
		return common.ErrorInternal
	}
	return nil
}

// RequestPasswordReset issues a fresh reset token for the account, replacing
// any outstanding one; only the most recent token is valid. Delivery of the
// token to the user is the caller's concern.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		s.logger.Error(ctx, "reset lookup failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	token, err := common.MakeRandHexString(common.TokenByteLength)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	expires := time.Now().Add(s.resetTokenValidity)
	err = repo.Update(ctx, user.ID, users.UpdateFields{
		ResetToken:          &sql.NullString{String: token, Valid: true},
		ResetTokenExpiresAt: &sql.NullTime{Time: expires, Valid: true},
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		s.logger.Error(ctx, "reset persist failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	return token, nil
}

// ConsumePasswordReset updates the password of the account owning the reset
// token. The store clears the token in the same statement that swaps the
// hash, keyed on the token itself, so of any number of concurrent consumers
// exactly one succeeds and a consumed token can never be replayed. Expired
// tokens are rejected with common.ErrResetTokenExpired.
func (s *AuthService) ConsumePasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return common.ErrInvalidResetToken
	}
	if newPassword == "" {
		return common.ErrorValidation
	}

	// hash before opening the transaction; bcrypt is too slow to hold a tx
	hash, err := cryptox.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err.Error())
		return common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByResetToken(ctx, resetToken)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidResetToken
			}
			s.logger.Error(ctx, "reset token lookup failed", "error", err.Error())
			return common.ErrorInternal
		}

		if user.ResetTokenExpiresAt.Valid && time.Now().After(user.ResetTokenExpiresAt.Time) {
			return common.ErrResetTokenExpired
		}

		return repo.ConsumeResetToken(ctx, resetToken, hash)
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidResetToken), errors.Is(err, common.ErrResetTokenExpired):
			return err
		case errors.Is(err, common.ErrNotFound):
			return common.ErrInvalidResetToken
		default:
			s.logger.Error(ctx, "password update failed", "error", err.Error())
			return common.ErrorInternal
		}
	}

	return nil
}

// UserByID returns the user with the given id, for bearer-token identity
// resolution.
func (s *AuthService) UserByID(ctx context.Context, id string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}
	return user, nil
}

// IssueAccessToken mints a signed bearer token for the user, used by the
// bearer identity extractor variant.
func (s *AuthService) IssueAccessToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
