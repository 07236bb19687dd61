package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered gateway user.
type User struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	HasElevatedRights bool      `json:"hasElevatedRights"`
	CreatedAt         time.Time `json:"createdAt"`
}
