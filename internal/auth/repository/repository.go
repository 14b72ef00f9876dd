package repository

import (
	"context"
	"errors"
	"time"

	"homni_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")
var ErrEmailTaken = errors.New("email already registered")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleGrant is one role row. ExpiresAt nil means permanent.
type RoleGrant struct {
	Role      string
	ExpiresAt *time.Time
}

const userColumns = `id, email, password_hash, full_name, created_at, updated_at`

const activeRolesQuery = `
	SELECT role FROM user_roles
	WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > now())
	ORDER BY role`

const cleanupExpiredRolesQuery = `
	DELETE FROM user_roles
	WHERE expires_at IS NOT NULL AND expires_at <= $1`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

// CreateUser inserts the user together with the default role.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash, fullName, defaultRole string) (User, error) {
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		user, err = scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, full_name)
			VALUES ($1, $2, $3)
			RETURNING `+userColumns, email, passwordHash, fullName))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, user.ID, defaultRole)
		return err
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// GetUserRoles returns the roles that have not expired.
func (r *Repository) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, activeRolesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]string, 0, 2)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GrantRole adds a permanent role, leaving existing roles in place.
func (r *Repository) GrantRole(ctx context.Context, userID uuid.UUID, role string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role)
		SELECT id, $2 FROM users WHERE id = $1
		ON CONFLICT (user_id, role) DO UPDATE SET expires_at = NULL
	`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserRoles replaces every role of the user.
func (r *Repository) SetUserRoles(ctx context.Context, userID uuid.UUID, grants []RoleGrant) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, g := range grants {
			batch.Queue(`INSERT INTO user_roles (user_id, role, expires_at) VALUES ($1, $2, $3)`, userID, g.Role, g.ExpiresAt)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// CleanupExpiredRoles removes role rows whose expiry is at or before now.
func (r *Repository) CleanupExpiredRoles(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, cleanupExpiredRolesQuery, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
