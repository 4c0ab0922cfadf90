package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, hashed_password, session_id, reset_token, reset_token_expires_at, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword,
		&user.SessionID, &user.ResetToken, &user.ResetTokenExpiresAt, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Create inserts a new user. The UNIQUE constraint on email makes the
// existence check and the insert one atomic operation; a violation is
// reported as common.ErrEmailAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, email string, hashedPassword []byte) (*models.User, error) {

	query := `
		INSERT INTO users (id, email, hashed_password)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	user := &models.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashedPassword,
	}

	err := r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.HashedPassword).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE session_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, sessionID))
}

func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

// ConsumeResetToken swaps the password hash and clears the reset token in
// one statement keyed on the token. Re-checking the token in the WHERE
// clause makes the consume single-use under concurrency: the second of two
// racing consumers re-evaluates the predicate after the row lock and
// matches nothing.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, resetToken string, hashedPassword []byte) error {

	query := `
		UPDATE users
		SET hashed_password = $1, reset_token = NULL, reset_token_expires_at = NULL
		WHERE reset_token = $2
	`

	res, err := r.db.ExecContext(ctx, query, hashedPassword, resetToken)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// Update applies the non-nil fields as one UPDATE statement, so concurrent
// updates to the same record serialize on the row lock and are never
// partially applied.
func (r *PostgresRepository) Update(ctx context.Context, userID string, fields UpdateFields) error {

	if fields.Empty() {
		var id string
		err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1`, userID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}

	set := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, column+" = $"+strconv.Itoa(len(args)))
	}

	if fields.HashedPassword != nil {
		add("hashed_password", fields.HashedPassword)
	}
	if fields.SessionID != nil {
		add("session_id", *fields.SessionID)
	}
	if fields.ResetToken != nil {
		add("reset_token", *fields.ResetToken)
	}
	if fields.ResetTokenExpiresAt != nil {
		add("reset_token_expires_at", *fields.ResetTokenExpiresAt)
	}

	args = append(args, userID)
	query := `UPDATE users SET ` + strings.Join(set, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}
