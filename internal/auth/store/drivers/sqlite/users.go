package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/almny/almny-auth/internal/auth/domain"
	"github.com/almny/almny-auth/internal/auth/store"
)

const userColumns = `id, email, full_name, password_hash, roles,
	email_confirmed, failed_access_count, lockout_until, security_stamp,
	created_at, updated_at`

type usersRepo struct {
	db DBTX
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := mapUserRow(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))

	u, err := mapUserRow(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, full_name, password_hash, roles,
			email_confirmed, failed_access_count, lockout_until, security_stamp,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?, ?, ?)`,
		u.ID,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.FullName,
		u.PasswordHash,
		joinRoles(u.Roles),
		u.EmailConfirmed,
		u.SecurityStamp,
		now,
		now,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash, newStamp string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, security_stamp = ?, updated_at = ?
		WHERE id = ?`,
		newHash, newStamp, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetEmailConfirmed(ctx context.Context, userID, newStamp string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_confirmed = 1, security_stamp = ?, updated_at = ?
		WHERE id = ?`,
		newStamp, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) IncrementFailedAccess(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_access_count = failed_access_count + 1, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ResetFailedAccess(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_access_count = 0, lockout_until = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetLockout(ctx context.Context, userID string, until time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET lockout_until = ?, updated_at = ?
		WHERE id = ?`,
		until.UTC(), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
