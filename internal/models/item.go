package models

import "time"

// Item is a lendable resource type with a pool of identical units.
// Quantity is the number of units currently available; it never goes
// below zero and is only changed by the lifecycle engine (approve -1,
// return +1) or by staff item updates.
type Item struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url"`
	Quantity    int       `json:"quantity"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
