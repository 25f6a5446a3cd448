package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/user"
)

const userColumns = `id, coalesce(tenant_id::text, ''), username, password_hash, role, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	var role string
	err := row.Scan(&u.ID, &u.TenantID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = user.Role(role)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if u.ID != "" && !validID(u.ID) {
		return domain.Invalid("invalid user id")
	}
	if u.TenantID != "" && !validID(u.TenantID) {
		return fmt.Errorf("create user: tenant %s: %w", u.TenantID, domain.ErrNotFound)
	}
	u.Username = user.NormalizeUsername(u.Username)

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, tenant_id, username, password_hash, role)
		VALUES (coalesce(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		u.ID, nullIfEmpty(u.TenantID), u.Username, u.PasswordHash, string(u.Role),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	switch {
	case isUniqueViolation(err):
		return domain.Conflict("username already exists")
	case isForeignKeyViolation(err):
		return fmt.Errorf("create user: tenant %s: %w", u.TenantID, domain.ErrNotFound)
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
	}
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = $1`, user.NormalizeUsername(username)))
	if err != nil {
		return nil, notFoundWrap(err, "get user by username")
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return out, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	if !validID(userID) {
		return fmt.Errorf("update password %s: %w", userID, domain.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, hash)
	return execExpectOne(tag, err, "update password %s", userID)
}
