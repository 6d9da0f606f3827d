package resource

import "time"

// Resource is externally owned data tied to exactly one disaster record.
// This core only reads resources; it never mutates them.
type Resource struct {
	ID         string    `json:"id" db:"id"`
	DisasterID string    `json:"disaster_id" db:"disaster_id"`
	Name       string    `json:"name" db:"name"`
	Type       string    `json:"type" db:"type"`
	Lat        float64   `json:"lat" db:"lat"`
	Lon        float64   `json:"lon" db:"lon"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
