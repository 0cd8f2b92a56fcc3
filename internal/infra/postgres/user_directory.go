package postgres

import (
	"context"
	"errors"
	"fmt"

	"course-authoring-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserDirectory loads principals from the users table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

const selectUser = `SELECT id, name, email, password_hash, role FROM users`

func (d *UserDirectory) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	return d.scanUser(d.pool.QueryRow(ctx, selectUser+` WHERE id=$1`, userID))
}

func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return d.scanUser(d.pool.QueryRow(ctx, selectUser+` WHERE lower(email)=lower($1)`, email))
}

// Upsert inserts or updates a user keyed by email and returns its id.
func (d *UserDirectory) Upsert(ctx context.Context, user domain.User) (int64, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, password_hash=EXCLUDED.password_hash, role=EXCLUDED.role
		RETURNING id`,
		user.Name, user.Email, user.PasswordHash, string(user.Role)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert user: %w", err)
	}
	return id, nil
}

func (d *UserDirectory) scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}
