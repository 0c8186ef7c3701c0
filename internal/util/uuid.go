package util

import (
	"strings"

	"github.com/google/uuid"
)

// UUID returns a random version 4 UUID as 32 lowercase hex characters
func UUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
