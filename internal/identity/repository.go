package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByAcademicEmail(ctx context.Context, email string) (User, error)
	UpdateTokenVersion(ctx context.Context, id string, version int) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `SELECT id, username, COALESCE(academic_email, ''), personal_email, password_hash,
    token_version, created_at, last_login FROM users`

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	var academic any
	if user.AcademicEmail != "" {
		academic = user.AcademicEmail
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, username, academic_email, personal_email, password_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, user.Username, academic, user.PersonalEmail, user.PasswordHash, user.TokenVersion, user.CreatedAt.UTC())

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "academic_email") {
			return ErrEmailTaken
		}
		return ErrUsernameTaken
	}
	return err
}

// FindByID fetches a user by primary key.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.scanOne(r.db.QueryRow(ctx, selectUser+` WHERE id = $1`, userID))
}

// FindByUsername fetches a user by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, selectUser+` WHERE username = $1`, username))
}

// FindByAcademicEmail fetches a user by academic email.
func (r *PostgresRepository) FindByAcademicEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, selectUser+` WHERE academic_email = $1`, email))
}

// UpdateTokenVersion stores a new token version, invalidating older tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	return r.exec(ctx, `UPDATE users SET token_version = $1 WHERE id = $2`, id, version)
}

// TouchLastLogin records a successful login time.
func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, id, at.UTC())
}

func (r *PostgresRepository) exec(ctx context.Context, sql, id string, value any) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, sql, value, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		lastLogin *time.Time
		user      User
	)
	err := row.Scan(&id, &user.Username, &user.AcademicEmail, &user.PersonalEmail, &user.PasswordHash,
		&user.TokenVersion, &createdAt, &lastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	if lastLogin != nil {
		t := lastLogin.UTC()
		user.LastLogin = &t
	}
	return user, nil
}
