package users

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/Ben2303/gamevault-backend/internal/logger"
)

// Conn provides access to the live database connection. The handle is
// fetched per call because it changes across a backup/restore cycle.
type Conn interface {
	DB() *sql.DB
	Rebind(query string) string
}

// Repository persists User records.
type Repository struct {
	conn Conn
	log  logger.Logger
}

// NewRepository creates a repository over the live connection.
func NewRepository(conn Conn, log logger.Logger) *Repository {
	return &Repository{conn: conn, log: log}
}

const userColumns = "id, username, password_hash, email, first_name, last_name, role, activated, created_at, updated_at, deleted_at"

func (r *Repository) db() (*sql.DB, error) {
	db := r.conn.DB()
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return db, nil
}

// Create inserts a new user record.
func (r *Repository) Create(ctx context.Context, u *User) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, r.conn.Rebind(
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		u.ID, u.Username, u.PasswordHash, u.Email, u.FirstName, u.LastName,
		u.Role, u.Activated, u.CreatedAt, u.UpdatedAt, u.DeletedAt)
	if err != nil {
		return fmt.Errorf("cannot insert user %s: %w", u.Username, err)
	}
	return nil
}

// GetByID fetches a user by id, including soft-deleted ones.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, r.conn.Rebind(
		"SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	return scanUser(row)
}

// GetByUsername fetches a non-deleted user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, r.conn.Rebind(
		"SELECT "+userColumns+" FROM users WHERE username = ? AND deleted_at IS NULL"), username)
	return scanUser(row)
}

// List returns all non-deleted users.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE deleted_at IS NULL ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("cannot list users: %w", err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

// Count returns the number of users ever registered, deleted included.
func (r *Repository) Count(ctx context.Context) (int, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("cannot count users: %w", err)
	}
	return n, nil
}

// Update persists changes to an existing record.
func (r *Repository) Update(ctx context.Context, u *User) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	u.UpdatedAt = time.Now().UTC()
	_, err = db.ExecContext(ctx, r.conn.Rebind(
		`UPDATE users SET username = ?, password_hash = ?, email = ?, first_name = ?,
		 last_name = ?, role = ?, activated = ?, updated_at = ?, deleted_at = ? WHERE id = ?`),
		u.Username, u.PasswordHash, u.Email, u.FirstName, u.LastName,
		u.Role, u.Activated, u.UpdatedAt, u.DeletedAt, u.ID)
	if err != nil {
		return fmt.Errorf("cannot update user %s: %w", u.ID, err)
	}
	return nil
}

// SoftDelete marks a user as deleted without dropping the record.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, r.conn.Rebind(
		"UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL"),
		now, now, id)
	if err != nil {
		return fmt.Errorf("cannot delete user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gverrors.NewNotFound(fmt.Sprintf("user %s not found", id))
	}
	return nil
}

// Recover clears the soft-delete marker.
func (r *Repository) Recover(ctx context.Context, id string) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, r.conn.Rebind(
		"UPDATE users SET deleted_at = NULL, updated_at = ? WHERE id = ?"),
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("cannot recover user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gverrors.NewNotFound(fmt.Sprintf("user %s not found", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var deletedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FirstName,
		&u.LastName, &u.Role, &u.Activated, &u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, gverrors.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("cannot scan user row: %w", err)
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}
