package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// PreferenceRepository handles database operations for preferences
type PreferenceRepository struct {
	db *DB
}

func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetPreference returns nil when the key has never been set.
func (r *PreferenceRepository) GetPreference(key string) (*Preference, error) {
	var pref Preference
	err := r.db.QueryRow(`
		SELECT key, value, created_at, updated_at
		FROM preferences
		WHERE key = ?
	`, key).Scan(&pref.Key, &pref.Value, &pref.CreatedAt, &pref.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference %s: %w", key, err)
	}

	return &pref, nil
}

// SetPreference inserts or updates a preference value
func (r *PreferenceRepository) SetPreference(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO preferences (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}

// GetPreferenceCount returns the number of stored preferences
func (r *PreferenceRepository) GetPreferenceCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM preferences`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count preferences: %w", err)
	}
	return count, nil
}
