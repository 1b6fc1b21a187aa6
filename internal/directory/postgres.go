package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/safeguardai/console/internal/rbac"
)

// PostgresStore is the production Store backed by the users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `uid, name, email, role, status, created_at, is_invite`

func scanUser(row pgx.Row) (*UserRecord, error) {
	var rec UserRecord
	err := row.Scan(&rec.UID, &rec.Name, &rec.Email, &rec.Role, &rec.Status, &rec.CreatedAt, &rec.IsInvite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, uid string) (*UserRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
	return scanUser(row)
}

func (s *PostgresStore) FindInviteByEmail(ctx context.Context, email string) (*UserRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = $1 AND is_invite = TRUE`,
		NormalizeEmail(email))
	return scanUser(row)
}

func (s *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = $1)`,
		NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CountByRole(ctx context.Context, role rbac.Role) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE role = $1`, string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users by role: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AdminExists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`,
		string(rbac.RoleAdmin)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking for existing admin: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]UserRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var records []UserRecord
	for rows.Next() {
		var rec UserRecord
		if err := rows.Scan(&rec.UID, &rec.Name, &rec.Email, &rec.Role, &rec.Status, &rec.CreatedAt, &rec.IsInvite); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, rec *UserRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (uid, name, email, role, status, created_at, is_invite)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.UID, rec.Name, rec.Email, string(rec.Role), rec.Status, rec.CreatedAt, rec.IsInvite)
	if err != nil {
		return fmt.Errorf("creating user record: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateRole(ctx context.Context, uid string, role rbac.Role) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET role = $2 WHERE uid = $1`, uid, string(role))
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, uid string, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET status = $2 WHERE uid = $1`, uid, status)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, uid string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("deleting user record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
