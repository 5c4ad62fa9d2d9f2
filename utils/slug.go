package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateSlug returns a short random public identifier for an honor.
// Uniqueness is enforced by the database index; callers retry on collision.
func GenerateSlug() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}
