package probe

import (
	"context"

	"github.com/lysyi3m/edgeboard/app/content"
)

const (
	DefaultMaxSlots   = 30
	DefaultMinSlots   = 6
	DefaultDeadStreak = 8
)

// Checker reports whether a resource exists. Errors are the checker's
// concern: anything other than a confirmed hit is a miss.
type Checker interface {
	Exists(ctx context.Context, url string) bool
}

// Found is one detected media file.
type Found struct {
	Name string            `json:"name"`
	URL  string            `json:"url"`
	Kind content.MediaKind `json:"kind"`
}
