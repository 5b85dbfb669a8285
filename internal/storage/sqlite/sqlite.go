package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kidsafe/internal/core"
	"kidsafe/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements storage.Storage using SQLite
type SQLiteStorage struct {
	db       *sql.DB
	timezone *time.Location
}

// New creates a new SQLite storage instance
func New(dbPath string, timezone *time.Location) (*SQLiteStorage, error) {
	if timezone == nil {
		timezone = time.UTC
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStorage{
		db:       db,
		timezone: timezone,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema
func (s *SQLiteStorage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS children (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			name TEXT NOT NULL,
			device_id TEXT NOT NULL UNIQUE,
			daily_limit INTEGER NOT NULL,
			blocked_websites TEXT,
			avatar TEXT NOT NULL DEFAULT 'avatar1.png',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (parent_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			child_id TEXT NOT NULL,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			url TEXT,
			category TEXT,
			duration INTEGER NOT NULL DEFAULT 0,
			is_restricted INTEGER NOT NULL DEFAULT 0,
			is_blocked INTEGER NOT NULL DEFAULT 0,
			timestamp DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (child_id) REFERENCES children(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_children_parent ON children(parent_id);
		CREATE INDEX IF NOT EXISTS idx_activities_child ON activities(child_id);
		CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateUser creates a new parent account
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *core.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
		return core.ErrEmailInUse
	}
	return err
}

// GetUser retrieves a user by ID
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*core.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email address
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.getUserWhere(ctx, "email = ?", email)
}

func (s *SQLiteStorage) getUserWhere(ctx context.Context, condition string, arg interface{}) (*core.User, error) {
	var user core.User

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users WHERE `+condition, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// CreateChild creates a new child profile
func (s *SQLiteStorage) CreateChild(ctx context.Context, child *core.Child) error {
	if err := child.Validate(); err != nil {
		return err
	}

	now := time.Now()
	child.CreatedAt = now
	child.UpdatedAt = now

	blockedJSON, err := marshalBlockedWebsites(child.BlockedWebsites)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO children (id, parent_id, name, device_id, daily_limit, blocked_websites, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, child.ID, child.ParentID, child.Name, child.DeviceID, child.DailyLimit,
		blockedJSON, child.Avatar, child.CreatedAt, child.UpdatedAt)

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: children.device_id") {
		return core.ErrDeviceIDInUse
	}
	return err
}

// GetChild retrieves a child by ID
func (s *SQLiteStorage) GetChild(ctx context.Context, id string) (*core.Child, error) {
	row := s.db.QueryRowContext(ctx, childSelect+" WHERE id = ?", id)
	return scanChild(row)
}

// GetChildByDeviceID retrieves a child by its device identifier
func (s *SQLiteStorage) GetChildByDeviceID(ctx context.Context, deviceID string) (*core.Child, error) {
	row := s.db.QueryRowContext(ctx, childSelect+" WHERE device_id = ?", deviceID)
	return scanChild(row)
}

// ListChildren retrieves all children
func (s *SQLiteStorage) ListChildren(ctx context.Context) ([]*core.Child, error) {
	return s.listChildrenWhere(ctx, "1=1")
}

// ListChildrenByParent retrieves all children owned by a parent
func (s *SQLiteStorage) ListChildrenByParent(ctx context.Context, parentID string) ([]*core.Child, error) {
	return s.listChildrenWhere(ctx, "parent_id = ?", parentID)
}

func (s *SQLiteStorage) listChildrenWhere(ctx context.Context, condition string, args ...interface{}) ([]*core.Child, error) {
	rows, err := s.db.QueryContext(ctx, childSelect+" WHERE "+condition+" ORDER BY name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []*core.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return children, rows.Err()
}

// UpdateChild updates an existing child profile
func (s *SQLiteStorage) UpdateChild(ctx context.Context, child *core.Child) error {
	if err := child.Validate(); err != nil {
		return err
	}

	child.UpdatedAt = time.Now()

	blockedJSON, err := marshalBlockedWebsites(child.BlockedWebsites)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE children
		SET name = ?, device_id = ?, daily_limit = ?, blocked_websites = ?, avatar = ?, updated_at = ?
		WHERE id = ?
	`, child.Name, child.DeviceID, child.DailyLimit, blockedJSON, child.Avatar, child.UpdatedAt, child.ID)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: children.device_id") {
			return core.ErrDeviceIDInUse
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrChildNotFound
	}

	return nil
}

// DeleteChild deletes a child profile and its activity history
func (s *SQLiteStorage) DeleteChild(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM children WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrChildNotFound
	}

	return nil
}

// CreateActivity records a single activity
func (s *SQLiteStorage) CreateActivity(ctx context.Context, activity *core.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}

	activity.CreatedAt = time.Now()
	if activity.Timestamp.IsZero() {
		activity.Timestamp = activity.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, child_id, type, name, url, category, duration,
			is_restricted, is_blocked, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, activity.ID, activity.ChildID, activity.Type, activity.Name,
		nullString(activity.URL), nullString(activity.Category), activity.Duration,
		activity.IsRestricted, activity.IsBlocked, activity.Timestamp, activity.CreatedAt)

	return err
}

// CreateActivities records a batch of activities in a single transaction
func (s *SQLiteStorage) CreateActivities(ctx context.Context, activities []*core.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	for _, activity := range activities {
		if err := activity.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, activity := range activities {
		activity.CreatedAt = now
		if activity.Timestamp.IsZero() {
			activity.Timestamp = now
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO activities (id, child_id, type, name, url, category, duration,
				is_restricted, is_blocked, timestamp, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, activity.ID, activity.ChildID, activity.Type, activity.Name,
			nullString(activity.URL), nullString(activity.Category), activity.Duration,
			activity.IsRestricted, activity.IsBlocked, activity.Timestamp, activity.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListActivitiesByChild retrieves a child's activities, newest first,
// optionally narrowed by time range, type, and category.
func (s *SQLiteStorage) ListActivitiesByChild(ctx context.Context, childID string, filter storage.ActivityFilter) ([]*core.Activity, error) {
	query := `
		SELECT id, child_id, type, name, url, category, duration,
			is_restricted, is_blocked, timestamp, created_at
		FROM activities WHERE child_id = ?
	`
	args := []interface{}{childID}

	if filter.From != nil {
		query += " AND timestamp >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += " AND timestamp <= ?"
		args = append(args, *filter.To)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	query += " ORDER BY timestamp DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*core.Activity
	for rows.Next() {
		var activity core.Activity
		var url, category sql.NullString

		if err := rows.Scan(&activity.ID, &activity.ChildID, &activity.Type, &activity.Name,
			&url, &category, &activity.Duration,
			&activity.IsRestricted, &activity.IsBlocked,
			&activity.Timestamp, &activity.CreatedAt); err != nil {
			return nil, err
		}

		activity.URL = url.String
		activity.Category = category.String

		activities = append(activities, &activity)
	}

	return activities, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Helper functions

const childSelect = `
	SELECT id, parent_id, name, device_id, daily_limit, blocked_websites, avatar, created_at, updated_at
	FROM children
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChild(row rowScanner) (*core.Child, error) {
	var child core.Child
	var blockedJSON sql.NullString

	err := row.Scan(&child.ID, &child.ParentID, &child.Name, &child.DeviceID,
		&child.DailyLimit, &blockedJSON, &child.Avatar, &child.CreatedAt, &child.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, core.ErrChildNotFound
	}
	if err != nil {
		return nil, err
	}

	if blockedJSON.Valid && blockedJSON.String != "" {
		if err := json.Unmarshal([]byte(blockedJSON.String), &child.BlockedWebsites); err != nil {
			return nil, fmt.Errorf("failed to unmarshal blocked websites: %w", err)
		}
	}

	return &child, nil
}

func marshalBlockedWebsites(websites []string) (sql.NullString, error) {
	if len(websites) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(websites)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal blocked websites: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
