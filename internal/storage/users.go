// ABOUTME: User account operations for SQLite storage.
// ABOUTME: Implements Repository interface methods for users.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/medrec/internal/models"
)

// CreateUser stores a new user and assigns its ID.
// A user that already carries an ID (import, migration) keeps it.
func (d *DB) CreateUser(u *models.User) error {
	var (
		result sql.Result
		err    error
	)
	if u.ID != 0 {
		result, err = d.db.Exec(
			`INSERT INTO users (id, username, password, created_at) VALUES (?, ?, ?, ?)`,
			u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339),
		)
	} else {
		result, err = d.db.Exec(
			`INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)`,
			u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339),
		)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", u.Username, ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return nil
}

// GetUser retrieves a user by ID.
func (d *DB) GetUser(id int64) (*models.User, error) {
	row := d.db.QueryRow(`SELECT id, username, password, created_at FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (d *DB) GetUserByUsername(username string) (*models.User, error) {
	row := d.db.QueryRow(`SELECT id, username, password, created_at FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	return u, nil
}

// ListUsers returns all users ordered by ID.
func (d *DB) ListUsers() ([]*models.User, error) {
	rows, err := d.db.Query(`SELECT id, username, password, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// parseTimestamp accepts both RFC3339 and SQLite's CURRENT_TIMESTAMP layout.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}
