package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const selectQ = `(?s)^\s*SELECT\s+id,\s*email,\s*hashed_password,\s*session_id,\s*reset_token,\s*reset_token_expires_at,\s*created_at\s+FROM\s+users\s+WHERE\s+`

func userRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "email", "hashed_password", "session_id",
		"reset_token", "reset_token_expires_at", "created_at",
	})
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+users\s*\(id,\s*email,\s*hashed_password\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at\s*$`

	rows := sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now())
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "alice@example.com", []byte("hash")).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), "alice@example.com", []byte("hash"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" || got.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+users\b`

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "alice@example.com", []byte("hash")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), "alice@example.com", []byte("hash"))
	if !errors.Is(err, common.ErrEmailAlreadyExists) {
		t.Fatalf("want ErrEmailAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+users\b`).
		WithArgs(sqlmock.AnyArg(), "alice@example.com", []byte("hash")).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "alice@example.com", []byte("hash"))
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := userRows(t).AddRow("u-1", "alice@example.com", []byte("hash"),
		nil, nil, nil, time.Now())
	mock.ExpectQuery(selectQ+`email\s*=\s*\$1`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.SessionID.Valid {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ+`email\s*=\s*\$1`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetBySessionID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ+`session_id\s*=\s*\$1`).
		WithArgs("stale-token").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySessionID(context.Background(), "stale-token")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByResetToken_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	rows := userRows(t).AddRow("u-2", "bob@example.com", []byte("hash"),
		nil, "tok", expires, time.Now())
	mock.ExpectQuery(selectQ+`reset_token\s*=\s*\$1`).
		WithArgs("tok").
		WillReturnRows(rows)

	got, err := repo.GetByResetToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetByResetToken error: %v", err)
	}
	if !got.ResetToken.Valid || got.ResetToken.String != "tok" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !got.ResetTokenExpiresAt.Valid {
		t.Fatalf("expected expiry to be set: %+v", got)
	}
}

func TestUpdate_SetSession(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+session_id\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
	mock.ExpectExec(q).
		WithArgs(sql.NullString{String: "tok", Valid: true}, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "u-1", UpdateFields{
		SessionID: &sql.NullString{String: "tok", Valid: true},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestUpdate_ClearSessionIsAWrite(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+session_id\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
	mock.ExpectExec(q).
		WithArgs(sql.NullString{}, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "u-1", UpdateFields{
		SessionID: &sql.NullString{},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("clearing a session must issue an UPDATE: %v", err)
	}
}

func TestUpdate_PasswordAndResetTokenInOneStatement(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+hashed_password\s*=\s*\$1,\s*reset_token\s*=\s*\$2,\s*reset_token_expires_at\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$4\s*$`
	mock.ExpectExec(q).
		WithArgs([]byte("newhash"), sql.NullString{}, sql.NullTime{}, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "u-1", UpdateFields{
		HashedPassword:      []byte("newhash"),
		ResetToken:          &sql.NullString{},
		ResetTokenExpiresAt: &sql.NullTime{},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestUpdate_UnknownUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*UPDATE\s+users\b`).
		WithArgs(sql.NullString{}, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "ghost", UpdateFields{SessionID: &sql.NullString{}})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdate_EmptyFieldsChecksExistence(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	if err := repo.Update(context.Background(), "u-1", UpdateFields{}); err != nil {
		t.Fatalf("empty update on a known user must succeed, got %v", err)
	}

	mock.ExpectQuery(q).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), "ghost", UpdateFields{})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound for unknown user, got %v", err)
	}
}

const consumeQ = `(?s)^\s*UPDATE\s+users\s+SET\s+hashed_password\s*=\s*\$1,\s*reset_token\s*=\s*NULL,\s*reset_token_expires_at\s*=\s*NULL\s+WHERE\s+reset_token\s*=\s*\$2\s*$`

func TestConsumeResetToken_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(consumeQ).
		WithArgs([]byte("newhash"), "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ConsumeResetToken(context.Background(), "tok", []byte("newhash")); err != nil {
		t.Fatalf("ConsumeResetToken error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConsumeResetToken_AlreadyConsumed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// the guard re-checks the token, a consumed one matches no row
	mock.ExpectExec(consumeQ).
		WithArgs([]byte("newhash"), "tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConsumeResetToken(context.Background(), "tok", []byte("newhash"))
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}
