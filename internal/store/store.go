// Package store is the datastore access layer for site settings, locations
// and admin accounts. Every error it returns is classified for the HTTP layer.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/pkg/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return database.Classify("store.Ping", s.db.PingContext(ctx))
}

func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	const op = "store.ListSettings"
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, COALESCE(value, ''), COALESCE(description, ''), updated_at
		FROM settings ORDER BY key`)
	if err != nil {
		return nil, database.ClassifyRead(op, err)
	}
	defer rows.Close()

	settings := []models.Setting{}
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Description, &st.UpdatedAt); err != nil {
			return nil, database.ClassifyRead(op, err)
		}
		settings = append(settings, st)
	}
	return settings, database.ClassifyRead(op, rows.Err())
}

func (s *Store) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	const op = "store.GetSetting"
	var st models.Setting
	err := s.db.QueryRowContext(ctx, `
		SELECT key, COALESCE(value, ''), COALESCE(description, ''), updated_at
		FROM settings WHERE key = $1`, key).
		Scan(&st.Key, &st.Value, &st.Description, &st.UpdatedAt)
	if err != nil {
		return nil, database.ClassifyRead(op, err)
	}
	return &st, nil
}

func (s *Store) UpdateSetting(ctx context.Context, key, value string, updatedBy int) error {
	const op = "store.UpdateSetting"
	if strings.TrimSpace(key) == "" {
		return apperr.Validation(op, "key is required")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE settings SET value = $1, updated_by = $2, updated_at = NOW() WHERE key = $3`,
		value, updatedBy, key)
	if err != nil {
		return database.Classify(op, err)
	}
	return expectRow(op, result, "setting not found")
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	const op = "store.GetAdminByEmail"
	var u models.AdminUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, COALESCE(full_name, ''), is_active, created_at
		FROM admin_users WHERE LOWER(email) = LOWER($1)`, strings.TrimSpace(email)).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, database.ClassifyRead(op, err)
	}
	return &u, nil
}

func (s *Store) TouchAdminLogin(ctx context.Context, id int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE admin_users SET last_login_at = $1 WHERE id = $2`, at, id)
	return database.Classify("store.TouchAdminLogin", err)
}

func (s *Store) UpdateAdminPassword(ctx context.Context, id int, passwordHash string) error {
	const op = "store.UpdateAdminPassword"
	result, err := s.db.ExecContext(ctx, `UPDATE admin_users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return database.Classify(op, err)
	}
	return expectRow(op, result, "admin user not found")
}

func expectRow(op string, result sql.Result, missing string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return database.Classify(op, err)
	}
	if n == 0 {
		return apperr.NotFound(op, missing)
	}
	return nil
}
