package database

import (
	"time"
)

// Preference is a single persisted key/value setting.
type Preference struct {
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
