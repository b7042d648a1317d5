// Package model defines data structure.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Listing is one marketplace item as served by the catalog API.
type Listing struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User holds public account information.
type User struct {
	UID       uuid.UUID `json:"uid"`
	Name      string    `json:"name"`
	StudentID string    `json:"studentId"`
	Email     string    `json:"email"`
}
