package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"smarttrade/internal/domain"
)

type SettingsRepo struct{ db *sqlx.DB }

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) Get(key string) (string, error) {
	var v string
	err := r.db.Get(&v, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return v, err
}

// Set upserts a key. No history is kept.
func (r *SettingsRepo) Set(key, value string) error {
	_, err := r.db.Exec(`
	  INSERT INTO settings(key, value) VALUES(?, ?)
	  ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (r *SettingsRepo) All() ([]domain.Setting, error) {
	var out []domain.Setting
	err := r.db.Select(&out, `SELECT key, value FROM settings ORDER BY key`)
	return out, err
}

func (r *SettingsRepo) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}
