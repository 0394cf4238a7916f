package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project groups tasks under a human-readable name and a short code.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
