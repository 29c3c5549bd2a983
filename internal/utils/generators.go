package utils

import "github.com/google/uuid"

// GenerateUUID creates a random UUID v4
func GenerateUUID() string {
	return uuid.NewString()
}
