package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a fresh UUID for ledger entries and participants
func GenerateID() string {
	return uuid.New().String()
}
